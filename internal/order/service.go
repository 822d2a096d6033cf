package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourbook/internal/kafka"
	"tourbook/internal/logger"
	"tourbook/internal/models"
	"tourbook/internal/payment/gateway"
	"tourbook/internal/pricing"
	"tourbook/internal/utils"
)

type DBLayer interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ResolveRef(ctx context.Context, ref models.OrderRef) (string, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	UpdateTravelers(ctx context.Context, id string, travelers []models.Traveler, status models.OrderStatus) error
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	DeleteOrder(ctx context.Context, id, userID string) error
}

type CheckoutLock interface {
	Acquire(ctx context.Context, orderID string) (token string, ok bool, err error)
	Release(ctx context.Context, orderID, token string) error
}

type Quoter interface {
	Quote(req pricing.Request) (pricing.Quote, error)
}

type TourNamer interface {
	TourName(id string) string
}

type OrderService struct {
	DB      DBLayer
	Lock    CheckoutLock
	Kafka   kafka.Publisher
	Pricing Quoter
	Gateway gateway.Gateway
	Tours   TourNamer
	logger  *logger.Logger
}

// NewOrderService accepts a nil db or gateway; the affected operations then
// fail with ErrStoreUnavailable or ErrGatewayNotConfigured.
func NewOrderService(db DBLayer, lock CheckoutLock, publisher kafka.Publisher, quoter Quoter, gw gateway.Gateway, tours TourNamer, log *logger.Logger) *OrderService {
	if publisher == nil {
		publisher = kafka.NopPublisher{Log: log}
	}
	return &OrderService{DB: db, Lock: lock, Kafka: publisher, Pricing: quoter, Gateway: gw, Tours: tours, logger: log}
}

// ---------------- ORDERS ----------------

// CreateOrder prices the request server-side and stores a draft. The
// client's total is only compared, never charged.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	quote, err := s.Pricing.Quote(pricing.Request{
		TourID:           req.TourID,
		Type:             req.Type,
		Travelers:        req.Travelers,
		ExtensionDays:    req.ExtensionDays,
		Insurance:        req.Insurance,
		SingleSupplement: req.SingleSupplement,
	})
	if err != nil {
		return nil, err
	}

	extras := req.Extras
	if extras == nil {
		extras = map[string]any{}
	}
	extras["extensionDays"] = req.ExtensionDays
	extras["insurance"] = req.Insurance
	extras["singleSupplement"] = req.SingleSupplement

	order := &models.Order{
		ID:                      utils.NewID(),
		UserID:                  userID,
		Type:                    req.Type,
		TourID:                  quote.TourID,
		TravelersCount:          req.Travelers,
		Status:                  models.StatusDraft,
		Currency:                quote.Currency,
		TotalPriceCents:         quote.TotalCents,
		DepositPerTravelerCents: quote.DepositPerTravelerCents,
		DepositTotalCents:       quote.DepositTotalCents,
		Extras:                  extras,
		Travelers:               []models.Traveler{},
	}
	if err := s.DB.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	mismatch := quote.Mismatch(req.ClientTotalCents)
	if mismatch {
		s.logger.Warn("PRICING", fmt.Sprintf("Order %s: client total %d differs from server total %d",
			order.ID, *req.ClientTotalCents, quote.TotalCents))
	}
	s.logger.LogOrder("CREATED", order.ID, fmt.Sprintf("tour=%s travelers=%d deposit=%d", order.TourID, order.TravelersCount, order.DepositTotalCents))
	s.publish(ctx, kafka.TopicOrderCreated, order)

	return &models.CreateOrderResponse{
		Order:         order,
		Pricing:       quote.Pricing(),
		PriceMismatch: mismatch,
	}, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*models.Order, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	return s.DB.ListByUser(ctx, userID)
}

// GetOrder resolves ref and returns the order only to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID string, ref models.OrderRef) (*models.Order, error) {
	if s.DB == nil {
		return nil, models.ErrStoreUnavailable
	}
	id, err := s.DB.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err := s.DB.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		s.logger.LogSecurity("ORDER_ACCESS", fmt.Sprintf("User %s denied access to order %s", userID, order.ID))
		return nil, models.ErrForbidden
	}
	return order, nil
}

// DeleteOrder removes a draft. Non-drafts fail with ErrInvalidState for
// owners; other users get ErrForbidden first.
func (s *OrderService) DeleteOrder(ctx context.Context, userID string, ref models.OrderRef) error {
	order, err := s.GetOrder(ctx, userID, ref)
	if err != nil {
		return err
	}
	if order.Status != models.StatusDraft {
		return fmt.Errorf("%w: only draft orders can be deleted (status %s)", models.ErrInvalidState, order.Status)
	}

	if err := s.DB.DeleteOrder(ctx, order.ID, userID); err != nil {
		if errors.Is(err, models.ErrOrderNotFound) {
			// the row changed state or vanished between load and delete
			return fmt.Errorf("%w: order changed while deleting", models.ErrInvalidState)
		}
		return err
	}

	s.logger.LogOrder("DELETED", order.ID, "draft removed by owner")
	order.Status = models.StatusCanceled
	s.publish(ctx, kafka.TopicOrderDeleted, order)
	return nil
}

// UpdateTravelers replaces the roster and moves the order to
// travelers_pending or ready_for_deposit. An empty roster keeps the order a
// draft.
func (s *OrderService) UpdateTravelers(ctx context.Context, userID string, ref models.OrderRef, travelers []models.Traveler) (*models.Order, error) {
	order, err := s.GetOrder(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	if !order.Status.PreDeposit() {
		return nil, fmt.Errorf("%w: travelers are locked once the deposit is paid", models.ErrInvalidState)
	}
	if len(travelers) > order.TravelersCount {
		return nil, fmt.Errorf("%w: order has %d traveler slots, got %d", models.ErrInvalidInput, order.TravelersCount, len(travelers))
	}

	normalized := make([]models.Traveler, 0, len(travelers))
	for i, t := range travelers {
		t = t.Normalize()
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("traveler %d: %w", i+1, err)
		}
		normalized = append(normalized, t)
	}

	status := rosterStatus(normalized, order.TravelersCount)
	if err := s.DB.UpdateTravelers(ctx, order.ID, normalized, status); err != nil {
		return nil, err
	}

	order.Travelers = normalized
	order.Status = status
	s.logger.LogOrder("TRAVELERS", order.ID, fmt.Sprintf("%d/%d travelers, status %s", len(normalized), order.TravelersCount, status))
	return order, nil
}

func rosterStatus(travelers []models.Traveler, slots int) models.OrderStatus {
	if len(travelers) == 0 {
		return models.StatusDraft
	}
	if len(travelers) < slots {
		return models.StatusTravelersPending
	}
	for _, t := range travelers {
		if !t.Complete() {
			return models.StatusTravelersPending
		}
	}
	return models.StatusReadyForDeposit
}

// ---------------- CHECKOUT ----------------

// CreateCheckoutSession charges the stored deposit total. A still-open
// session already stored on the order is returned instead of a new one.
func (s *OrderService) CreateCheckoutSession(ctx context.Context, caller *models.Identity, ref models.OrderRef) (*models.CheckoutSession, error) {
	order, err := s.GetOrder(ctx, caller.ID, ref)
	if err != nil {
		return nil, err
	}
	if !order.Status.PreDeposit() {
		return nil, fmt.Errorf("%w: order %s is %s", models.ErrInvalidState, order.ID, order.Status)
	}
	if s.Gateway == nil {
		return nil, models.ErrGatewayNotConfigured
	}

	token, ok, err := s.Lock.Acquire(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrCheckoutInProgress
	}
	defer func() {
		if err := s.Lock.Release(context.WithoutCancel(ctx), order.ID, token); err != nil {
			s.logger.Warn("CHECKOUT", fmt.Sprintf("Failed to release checkout lock for %s: %v", order.ID, err))
		}
	}()

	if order.StripeSessionID != "" {
		existing, err := s.Gateway.GetCheckoutSession(ctx, order.StripeSessionID)
		switch {
		case err != nil:
			s.logger.Warn("CHECKOUT", fmt.Sprintf("Could not load session %s for order %s: %v", order.StripeSessionID, order.ID, err))
		case existing.Open && existing.URL != "":
			s.logger.LogOrder("CHECKOUT_REUSE", order.ID, existing.ID)
			return existing, nil
		}
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, gateway.CheckoutRequest{
		OrderID:       order.ID,
		TourName:      s.tourName(order.TourID),
		Travelers:     order.TravelersCount,
		AmountCents:   order.DepositTotalCents,
		Currency:      order.Currency,
		CustomerEmail: caller.Email,
	})
	if err != nil {
		if errors.Is(err, models.ErrGateway) || errors.Is(err, models.ErrInvalidState) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	if err := s.DB.SetCheckoutSession(ctx, order.ID, session.ID); err != nil {
		return nil, err
	}
	s.logger.LogOrder("CHECKOUT", order.ID, fmt.Sprintf("session %s for %d %s", session.ID, order.DepositTotalCents, strings.ToUpper(order.Currency)))
	return session, nil
}

func (s *OrderService) tourName(id string) string {
	if s.Tours == nil {
		return id
	}
	return s.Tours.TourName(id)
}

func (s *OrderService) publish(ctx context.Context, topic string, order *models.Order) {
	event := models.NewOrderEvent(order)
	utils.Attempt(s.logger, "KAFKA", "publish "+topic, func() error {
		return s.Kafka.PublishOrderEvent(ctx, topic, event)
	})
}
