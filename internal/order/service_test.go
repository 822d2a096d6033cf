package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/order"
	"tourbook/internal/payment/gateway"
	"tourbook/internal/pricing"
	"tourbook/internal/tours"
)

// Mock implementations
type MockDBLayer struct {
	mock.Mock
}

func (m *MockDBLayer) CreateOrder(ctx context.Context, o *models.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockDBLayer) ResolveRef(ctx context.Context, ref models.OrderRef) (string, error) {
	args := m.Called(ctx, ref)
	return args.String(0), args.Error(1)
}

func (m *MockDBLayer) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDBLayer) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockDBLayer) UpdateTravelers(ctx context.Context, id string, travelers []models.Traveler, status models.OrderStatus) error {
	args := m.Called(ctx, id, travelers, status)
	return args.Error(0)
}

func (m *MockDBLayer) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	args := m.Called(ctx, id, sessionID)
	return args.Error(0)
}

func (m *MockDBLayer) DeleteOrder(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutRequest) (*models.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSession), args.Error(1)
}

func (m *MockGateway) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutSession), args.Error(1)
}

type fakeLock struct {
	mu      sync.Mutex
	held    map[string]bool
	release int
}

func (l *fakeLock) Acquire(_ context.Context, id string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	if l.held[id] {
		return "", false, nil
	}
	l.held[id] = true
	return "tok", true, nil
}

func (l *fakeLock) Release(_ context.Context, id, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, id)
	l.release++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []models.OrderEvent
	err    error
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, topic string, e models.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

const testCatalog = `currency: eur
tours:
  - id: alps
    name: Alps Traverse
    max_travelers: 8
    base_price_cents: 100000
    deposit: {kind: percent, value: 20}
    extension_per_day_cents: 10000
    insurance_cents: 5000
    single_supplement_cents: 20000
    private_surcharge_percent: 25
`

type fixture struct {
	db      *MockDBLayer
	gw      *MockGateway
	lock    *fakeLock
	pub     *recordingPublisher
	service *order.OrderService
}

func newFixture(t *testing.T) *fixture {
	catalog, err := tours.Parse([]byte(testCatalog))
	require.NoError(t, err)

	f := &fixture{db: new(MockDBLayer), gw: new(MockGateway), lock: &fakeLock{}, pub: &recordingPublisher{}}
	f.service = order.NewOrderService(f.db, f.lock, f.pub, pricing.NewAuthority(catalog), f.gw, catalog, logger.Discard())
	return f
}

func storedOrder(id, userID string, status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:                id,
		UserID:            userID,
		TourID:            "alps",
		TravelersCount:    2,
		Status:            status,
		Currency:          "eur",
		TotalPriceCents:   200000,
		DepositTotalCents: 40000,
		Travelers:         []models.Traveler{},
	}
}

func (f *fixture) expectOrder(o *models.Order) models.OrderRef {
	ref := models.UUIDRef(o.ID)
	f.db.On("ResolveRef", mock.Anything, ref).Return(o.ID, nil)
	f.db.On("GetOrder", mock.Anything, o.ID).Return(o, nil)
	return ref
}

func strPtr(s string) *string { return &s }

const orderID = "3f0c8a3e-1c55-4d59-9a3c-5e0f0a0b7c11"

func TestCreateOrderUsesServerPrice(t *testing.T) {
	f := newFixture(t)
	f.db.On("CreateOrder", mock.Anything, mock.AnythingOfType("*models.Order")).Return(nil)

	client := int64(1)
	resp, err := f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type:             models.OrderTypeFixed,
		TourID:           "alps",
		Travelers:        2,
		ClientTotalCents: &client,
	})
	require.NoError(t, err)

	assert.True(t, resp.PriceMismatch)
	assert.Equal(t, int64(200000), resp.Order.TotalPriceCents)
	assert.Equal(t, int64(40000), resp.Order.DepositTotalCents)
	assert.Equal(t, models.StatusDraft, resp.Order.Status)
	assert.Equal(t, "user-1", resp.Order.UserID)
	assert.NotEmpty(t, resp.Order.ID)
	assert.Equal(t, resp.Order.TotalPriceCents, resp.Pricing.TotalCents)
	assert.Equal(t, []string{"tourbook.order.created"}, f.pub.topics)
	f.db.AssertExpectations(t)
}

func TestCreateOrderMatchingClientTotal(t *testing.T) {
	f := newFixture(t)
	f.db.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)

	client := int64(100000)
	resp, err := f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type:             models.OrderTypeFixed,
		TourID:           "alps",
		Travelers:        1,
		ClientTotalCents: &client,
	})
	require.NoError(t, err)
	assert.False(t, resp.PriceMismatch)
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type: models.OrderTypeFixed, TourID: "unknown", Travelers: 1,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type: "group", TourID: "alps", Travelers: 1,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type: models.OrderTypeFixed, TourID: "alps", Travelers: 9,
	})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	f.db.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCreateOrderSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errors.New("broker down")
	f.db.On("CreateOrder", mock.Anything, mock.Anything).Return(nil)

	_, err := f.service.CreateOrder(context.Background(), "user-1", models.CreateOrderRequest{
		Type: models.OrderTypeFixed, TourID: "alps", Travelers: 1,
	})
	assert.NoError(t, err)
}

func TestNilStoreIsUnavailable(t *testing.T) {
	s := order.NewOrderService(nil, &fakeLock{}, nil, nil, nil, nil, logger.Discard())

	_, err := s.ListOrders(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)

	_, err = s.GetOrder(context.Background(), "user-1", models.UUIDRef(orderID))
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestGetOrderOwnership(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))

	got, err := f.service.GetOrder(context.Background(), "owner", ref)
	require.NoError(t, err)
	assert.Equal(t, orderID, got.ID)

	_, err = f.service.GetOrder(context.Background(), "intruder", ref)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)
	ref := models.LegacyRef(7)
	f.db.On("ResolveRef", mock.Anything, ref).Return("", models.ErrOrderNotFound)

	_, err := f.service.GetOrder(context.Background(), "owner", ref)
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
	f.db.On("DeleteOrder", mock.Anything, orderID, "owner").Return(nil)

	require.NoError(t, f.service.DeleteOrder(context.Background(), "owner", ref))
	assert.Equal(t, []string{"tourbook.order.deleted"}, f.pub.topics)
	assert.Equal(t, models.StatusCanceled, f.pub.events[0].Status)
}

func TestDeleteOrderRejectsNonDraft(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDepositPaid))

	err := f.service.DeleteOrder(context.Background(), "owner", ref)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	err = f.service.DeleteOrder(context.Background(), "intruder", ref)
	assert.ErrorIs(t, err, models.ErrForbidden)
	f.db.AssertNotCalled(t, "DeleteOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateTravelersStatusTransitions(t *testing.T) {
	complete := models.Traveler{FullName: strPtr(" Ada Lovelace "), PassportNumber: strPtr("X123")}
	partial := models.Traveler{FullName: strPtr("Grace Hopper"), PassportNumber: strPtr("  ")}

	tests := []struct {
		name      string
		travelers []models.Traveler
		want      models.OrderStatus
	}{
		{"partial roster", []models.Traveler{complete}, models.StatusTravelersPending},
		{"incomplete traveler", []models.Traveler{complete, partial}, models.StatusTravelersPending},
		{"full roster", []models.Traveler{complete, complete}, models.StatusReadyForDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
			f.db.On("UpdateTravelers", mock.Anything, orderID, mock.Anything, tt.want).Return(nil)

			got, err := f.service.UpdateTravelers(context.Background(), "owner", ref, tt.travelers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, "Ada Lovelace", *got.Travelers[0].FullName)
		})
	}
}

func TestUpdateTravelersEmptyRosterStaysDraft(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
	f.db.On("UpdateTravelers", mock.Anything, orderID, []models.Traveler{}, models.StatusDraft).Return(nil)

	got, err := f.service.UpdateTravelers(context.Background(), "owner", ref, []models.Traveler{})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, got.Status)
	f.db.AssertExpectations(t)
}

func TestUpdateTravelersValidation(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))

	three := make([]models.Traveler, 3)
	_, err := f.service.UpdateTravelers(context.Background(), "owner", ref, three)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = f.service.UpdateTravelers(context.Background(), "owner", ref, []models.Traveler{{BirthDate: strPtr("12/01/1990")}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	assert.ErrorContains(t, err, "traveler 1")
}

func TestUpdateTravelersLockedAfterDeposit(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDepositPaid))

	_, err := f.service.UpdateTravelers(context.Background(), "owner", ref, nil)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCheckoutChargesStoredDeposit(t *testing.T) {
	f := newFixture(t)
	ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusReadyForDeposit))
	f.gw.On("CreateCheckoutSession", mock.Anything, gateway.CheckoutRequest{
		OrderID:       orderID,
		TourName:      "Alps Traverse",
		Travelers:     2,
		AmountCents:   40000,
		Currency:      "eur",
		CustomerEmail: "owner@example.com",
	}).Return(&models.CheckoutSession{ID: "cs_1", URL: "https://pay/cs_1", Open: true}, nil)
	f.db.On("SetCheckoutSession", mock.Anything, orderID, "cs_1").Return(nil)

	session, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner", Email: "owner@example.com"}, ref)
	require.NoError(t, err)
	assert.Equal(t, "https://pay/cs_1", session.URL)
	assert.Equal(t, 1, f.lock.release)
	f.gw.AssertExpectations(t)
	f.db.AssertExpectations(t)
}

func TestCheckoutReusesOpenSession(t *testing.T) {
	f := newFixture(t)
	o := storedOrder(orderID, "owner", models.StatusReadyForDeposit)
	o.StripeSessionID = "cs_open"
	ref := f.expectOrder(o)
	f.gw.On("GetCheckoutSession", mock.Anything, "cs_open").
		Return(&models.CheckoutSession{ID: "cs_open", URL: "https://pay/cs_open", Open: true}, nil)

	session, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
	require.NoError(t, err)
	assert.Equal(t, "cs_open", session.ID)
	f.gw.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCheckoutReplacesExpiredSession(t *testing.T) {
	f := newFixture(t)
	o := storedOrder(orderID, "owner", models.StatusTravelersPending)
	o.StripeSessionID = "cs_old"
	ref := f.expectOrder(o)
	f.gw.On("GetCheckoutSession", mock.Anything, "cs_old").Return(&models.CheckoutSession{ID: "cs_old"}, nil)
	f.gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(&models.CheckoutSession{ID: "cs_new", URL: "https://pay/cs_new", Open: true}, nil)
	f.db.On("SetCheckoutSession", mock.Anything, orderID, "cs_new").Return(nil)

	session, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
	require.NoError(t, err)
	assert.Equal(t, "cs_new", session.ID)
}

func TestCheckoutRejections(t *testing.T) {
	t.Run("already paid", func(t *testing.T) {
		f := newFixture(t)
		ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDepositPaid))
		_, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
		assert.ErrorIs(t, err, models.ErrInvalidState)
	})

	t.Run("not owner", func(t *testing.T) {
		f := newFixture(t)
		ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
		_, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "other"}, ref)
		assert.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("gateway missing", func(t *testing.T) {
		f := newFixture(t)
		f.service.Gateway = nil
		ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
		_, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
		assert.ErrorIs(t, err, models.ErrGatewayNotConfigured)
	})

	t.Run("lock held", func(t *testing.T) {
		f := newFixture(t)
		ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
		_, _, _ = f.lock.Acquire(context.Background(), orderID)
		_, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
		assert.ErrorIs(t, err, models.ErrCheckoutInProgress)
	})

	t.Run("gateway failure", func(t *testing.T) {
		f := newFixture(t)
		ref := f.expectOrder(storedOrder(orderID, "owner", models.StatusDraft))
		f.gw.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card network"))
		_, err := f.service.CreateCheckoutSession(context.Background(), &models.Identity{ID: "owner"}, ref)
		assert.ErrorIs(t, err, models.ErrGateway)
		assert.Equal(t, 1, f.lock.release)
	})
}
