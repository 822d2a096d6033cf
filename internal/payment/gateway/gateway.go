package gateway

import (
	"context"

	"tourbook/internal/models"
)

// CheckoutRequest carries everything the gateway needs from server-held
// order state. No client-supplied amount reaches it.
type CheckoutRequest struct {
	OrderID       string
	TourName      string
	Travelers     int
	AmountCents   int64
	Currency      string
	CustomerEmail string
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
}
