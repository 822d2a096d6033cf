package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"tourbook/internal/config"
	"tourbook/internal/logger"
	"tourbook/internal/models"
)

// MetadataOrderID is the metadata key the webhook reconciler reads back.
const MetadataOrderID = "orderId"

const orderIDPlaceholder = "{ORDER_ID}"

// StripeGateway creates hosted Checkout sessions
type StripeGateway struct {
	client     *client.API
	successURL string
	cancelURL  string
	log        *logger.Logger
}

// NewStripeGateway returns models.ErrGatewayNotConfigured when no secret key
// is set, so callers can answer 503 instead of failing at charge time.
func NewStripeGateway(cfg config.StripeConfig, log *logger.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, checkout is disabled")
		return nil, models.ErrGatewayNotConfigured
	}

	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:     sc,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		log:        log,
	}, nil
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	params, err := g.sessionParams(req)
	if err != nil {
		return nil, err
	}
	params.Context = ctx

	g.log.Info("STRIPE", fmt.Sprintf("Creating checkout session for order %s (%d %s)", req.OrderID, req.AmountCents, req.Currency))
	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for order %s: %v", req.OrderID, err))
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}

	g.log.Info("STRIPE", fmt.Sprintf("Checkout session %s created for order %s", session.ID, req.OrderID))
	return toCheckoutSession(session), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	session, err := g.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGateway, err)
	}
	return toCheckoutSession(session), nil
}

func (g *StripeGateway) sessionParams(req CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive, got %d", models.ErrInvalidState, req.AmountCents)
	}

	metadata := map[string]string{MetadataOrderID: req.OrderID}
	name := req.TourName
	if name == "" {
		name = "Tour booking"
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID: stripe.String(req.OrderID),
		SuccessURL:        stripe.String(withOrderID(g.successURL, req.OrderID)),
		CancelURL:         stripe.String(withOrderID(g.cancelURL, req.OrderID)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(name + " deposit"),
						Description: stripe.String(fmt.Sprintf("Deposit for %d traveler(s)", req.Travelers)),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{MetadataOrderID: req.OrderID},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	return params, nil
}

func withOrderID(url, orderID string) string {
	return strings.ReplaceAll(url, orderIDPlaceholder, orderID)
}

func toCheckoutSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:   s.ID,
		URL:  s.URL,
		Open: s.Status == stripe.CheckoutSessionStatusOpen,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}
