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
	"tourbook/internal/support/db"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	for _, model := range []interface{}{(*models.SupportTicket)(nil), (*models.TicketReply)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func newTicket(userID string) *models.SupportTicket {
	return &models.SupportTicket{
		ID:       uuid.NewString(),
		UserID:   userID,
		Subject:  "Visa question",
		Message:  "Do I need a visa?",
		Priority: models.PriorityNormal,
		Status:   models.TicketOpen,
	}
}

func TestCreateAndGetTicket(t *testing.T) {
	ticketDB := setupTestDB(t)
	ctx := context.Background()

	ticket := newTicket("user-1")
	require.NoError(t, ticketDB.CreateTicket(ctx, ticket))

	got, err := ticketDB.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Visa question", got.Subject)
	assert.Empty(t, got.Replies)

	_, err = ticketDB.GetTicket(ctx, uuid.NewString())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddReplyTouchesTicket(t *testing.T) {
	ticketDB := setupTestDB(t)
	ctx := context.Background()

	ticket := newTicket("user-1")
	require.NoError(t, ticketDB.CreateTicket(ctx, ticket))
	before := ticket.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	for _, msg := range []string{"first", "second"} {
		require.NoError(t, ticketDB.AddReply(ctx, &models.TicketReply{
			ID: uuid.NewString(), TicketID: ticket.ID, UserID: "user-1", Message: msg,
		}))
		time.Sleep(2 * time.Millisecond)
	}

	got, err := ticketDB.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, got.Replies, 2)
	assert.Equal(t, "first", got.Replies[0].Message)
	assert.True(t, got.UpdatedAt.After(before))
}

func TestAddReplyToMissingTicket(t *testing.T) {
	ticketDB := setupTestDB(t)

	err := ticketDB.AddReply(context.Background(), &models.TicketReply{
		ID: uuid.NewString(), TicketID: "missing", UserID: "user-1", Message: "hello",
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListByUserAndClose(t *testing.T) {
	ticketDB := setupTestDB(t)
	ctx := context.Background()

	mine := newTicket("user-1")
	require.NoError(t, ticketDB.CreateTicket(ctx, mine))
	require.NoError(t, ticketDB.CreateTicket(ctx, newTicket("user-2")))

	list, err := ticketDB.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	require.NoError(t, ticketDB.SetStatus(ctx, mine.ID, models.TicketClosed))
	got, err := ticketDB.GetTicket(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketClosed, got.Status)

	assert.ErrorIs(t, ticketDB.SetStatus(ctx, "missing", models.TicketClosed), models.ErrNotFound)
}
