package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"tourbook/internal/models"
	"tourbook/internal/order/db"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	// Connect to an in-memory SQLite DB for testing
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = bunDB.NewCreateTable().Model((*models.Order)(nil)).Exec(context.Background())
	if err != nil {
		t.Fatalf("Failed to create order table: %v", err)
	}

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}, bunDB
}

func newOrder(userID string) *models.Order {
	return &models.Order{
		ID:                      uuid.New().String(),
		UserID:                  userID,
		Type:                    models.OrderTypeFixed,
		TourID:                  "japan-classic",
		TravelersCount:          2,
		Status:                  models.StatusDraft,
		Currency:                "eur",
		TotalPriceCents:         500000,
		DepositPerTravelerCents: 50000,
		DepositTotalCents:       100000,
	}
}

func TestCreateAndGetOrder(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	order := newOrder("user123")
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	got, err := orderDB.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "user123", got.UserID)
	assert.Equal(t, models.StatusDraft, got.Status)
	assert.Equal(t, int64(100000), got.DepositTotalCents)
	assert.Empty(t, got.Travelers)

	_, err = orderDB.GetOrder(ctx, uuid.New().String())
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestResolveRef(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	legacy := int64(42)
	order := newOrder("user123")
	order.LegacyID = &legacy
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	id, err := orderDB.ResolveRef(ctx, models.UUIDRef(order.ID))
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	id, err = orderDB.ResolveRef(ctx, models.LegacyRef(42))
	require.NoError(t, err)
	assert.Equal(t, order.ID, id)

	_, err = orderDB.ResolveRef(ctx, models.LegacyRef(43))
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	_, err = orderDB.ResolveRef(ctx, models.OrderRef{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestListByUserScopesAndOrders(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	older := newOrder("user123")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newOrder("user123")
	other := newOrder("someone-else")
	for _, o := range []*models.Order{older, newer, other} {
		require.NoError(t, orderDB.CreateOrder(ctx, o))
	}

	orders, err := orderDB.ListByUser(ctx, "user123")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)

	orders, err = orderDB.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestUpdateTravelers(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	order := newOrder("user123")
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	name, passport := "Ana Ruiz", "X1234567"
	travelers := []models.Traveler{{FullName: &name, PassportNumber: &passport}}
	require.NoError(t, orderDB.UpdateTravelers(ctx, order.ID, travelers, models.StatusTravelersPending))

	got, err := orderDB.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTravelersPending, got.Status)
	require.Len(t, got.Travelers, 1)
	assert.Equal(t, "Ana Ruiz", *got.Travelers[0].FullName)
	assert.Nil(t, got.Travelers[0].Nationality)

	err = orderDB.UpdateTravelers(ctx, uuid.New().String(), travelers, models.StatusTravelersPending)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestCheckoutSessionLookup(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	order := newOrder("user123")
	require.NoError(t, orderDB.CreateOrder(ctx, order))
	require.NoError(t, orderDB.SetCheckoutSession(ctx, order.ID, "cs_test_123"))

	got, err := orderDB.FindBySessionID(ctx, "cs_test_123")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = orderDB.FindBySessionID(ctx, "cs_missing")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	order := newOrder("user123")
	order.Status = models.StatusReadyForDeposit
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	prev, changed, err := orderDB.MarkPaid(ctx, order.ID, "cs_1", "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReadyForDeposit, prev)
	assert.True(t, changed)

	prev, changed, err = orderDB.MarkPaid(ctx, order.ID, "cs_1", "pi_1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDepositPaid, prev)
	assert.False(t, changed)

	got, err := orderDB.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDepositPaid, got.Status)
	assert.Equal(t, "cs_1", got.StripeSessionID)
	assert.Equal(t, "pi_1", got.StripePaymentIntentID)

	_, _, err = orderDB.MarkPaid(ctx, uuid.New().String(), "cs_2", "pi_2")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestMarkPaidKeepsCompletedStatus(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	order := newOrder("user123")
	order.Status = models.StatusCompleted
	require.NoError(t, orderDB.CreateOrder(ctx, order))

	prev, changed, err := orderDB.MarkPaid(ctx, order.ID, "cs_late", "pi_late")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, prev)
	assert.False(t, changed)

	got, err := orderDB.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "cs_late", got.StripeSessionID)
	assert.Equal(t, "pi_late", got.StripePaymentIntentID)
}

func TestDeleteOrderOnlyDraftAndOwner(t *testing.T) {
	orderDB, _ := setupTestDB(t)
	ctx := context.Background()

	legacyID := int64(314)
	draft := newOrder("user123")
	draft.LegacyID = &legacyID
	paid := newOrder("user123")
	paid.Status = models.StatusDepositPaid
	require.NoError(t, orderDB.CreateOrder(ctx, draft))
	require.NoError(t, orderDB.CreateOrder(ctx, paid))

	assert.ErrorIs(t, orderDB.DeleteOrder(ctx, draft.ID, "intruder"), models.ErrOrderNotFound)
	assert.ErrorIs(t, orderDB.DeleteOrder(ctx, paid.ID, "user123"), models.ErrOrderNotFound)
	resolved, err := orderDB.ResolveRef(ctx, models.LegacyRef(legacyID))
	require.NoError(t, err)
	require.Equal(t, draft.ID, resolved)

	require.NoError(t, orderDB.DeleteOrder(ctx, draft.ID, "user123"))

	_, err = orderDB.GetOrder(ctx, draft.ID)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
	_, err = orderDB.ResolveRef(ctx, models.UUIDRef(draft.ID))
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
	_, err = orderDB.ResolveRef(ctx, models.LegacyRef(legacyID))
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}
