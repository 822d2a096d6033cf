package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

type OrderType string

const (
	OrderTypeFixed   OrderType = "fixed"
	OrderTypePrivate OrderType = "private"
)

func (t OrderType) Valid() bool {
	return t == OrderTypeFixed || t == OrderTypePrivate
}

type OrderStatus string

const (
	StatusDraft            OrderStatus = "draft"
	StatusTravelersPending OrderStatus = "travelers_pending"
	StatusReadyForDeposit  OrderStatus = "ready_for_deposit"
	StatusDepositPaid      OrderStatus = "deposit_paid"
	StatusCompleted        OrderStatus = "completed"
	StatusCanceled         OrderStatus = "canceled"
)

// ErrLegacyStatus is returned for status values written by older code paths
// ("paid", "pending"). Rows carrying them must go through migration 000002.
var ErrLegacyStatus = errors.New("legacy order status requires backfill")

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusDraft, StatusTravelersPending, StatusReadyForDeposit,
		StatusDepositPaid, StatusCompleted, StatusCanceled:
		return OrderStatus(s), nil
	case "paid", "pending":
		return "", fmt.Errorf("%w: %q", ErrLegacyStatus, s)
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, s)
}

// PreDeposit reports whether the order can still be checked out or have its
// roster drive the status.
func (s OrderStatus) PreDeposit() bool {
	return s == StatusDraft || s == StatusTravelersPending || s == StatusReadyForDeposit
}

// Paid covers every state reached after a verified deposit.
func (s OrderStatus) Paid() bool {
	return s == StatusDepositPaid || s == StatusCompleted
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID                      string         `bun:"id_new,pk" json:"id"`
	LegacyID                *int64         `bun:"id,unique,nullzero" json:"legacyId,omitempty"`
	UserID                  string         `bun:"user_id,notnull" json:"userId"`
	Type                    OrderType      `bun:"type,notnull" json:"type"`
	TourID                  string         `bun:"tour_id,notnull" json:"tourId"`
	TravelersCount          int            `bun:"travelers_count,notnull" json:"travelersCount"`
	Status                  OrderStatus    `bun:"status,notnull" json:"status"`
	Currency                string         `bun:"currency,notnull" json:"currency"`
	TotalPriceCents         int64          `bun:"total_price_cents,notnull" json:"totalPriceCents"`
	DepositPerTravelerCents int64          `bun:"deposit_per_traveler_cents,notnull" json:"depositPerTravelerCents"`
	DepositTotalCents       int64          `bun:"deposit_total_cents,notnull" json:"depositTotalCents"`
	Extras                  map[string]any `bun:"extras,type:jsonb" json:"extras,omitempty"`
	Travelers               []Traveler     `bun:"travelers,type:jsonb" json:"travelers"`
	StripeSessionID         string         `bun:"stripe_session_id,nullzero" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID   string         `bun:"stripe_payment_intent_id,nullzero" json:"stripePaymentIntentId,omitempty"`
	CreatedAt               time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt               time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// CreateOrderRequest is the body of POST /api/orders.
type CreateOrderRequest struct {
	Type             OrderType      `json:"type" validate:"required,oneof=fixed private"`
	TourID           string         `json:"tourId" validate:"required"`
	Travelers        int            `json:"travelers" validate:"required,min=1,max=30"`
	ExtensionDays    int            `json:"extensionDays" validate:"min=0,max=30"`
	Insurance        bool           `json:"insurance"`
	SingleSupplement bool           `json:"singleSupplement"`
	Extras           map[string]any `json:"extras"`
	ClientTotalCents *int64         `json:"clientTotalCents,omitempty"`
}

// Pricing is the authoritative price breakdown returned with a created order.
type Pricing struct {
	Currency                string `json:"currency"`
	PerTravelerCents        int64  `json:"perTravelerCents"`
	TotalCents              int64  `json:"totalCents"`
	DepositPerTravelerCents int64  `json:"depositPerTravelerCents"`
	DepositTotalCents       int64  `json:"depositTotalCents"`
}

type CreateOrderResponse struct {
	Order         *Order   `json:"order"`
	Pricing       *Pricing `json:"pricing,omitempty"`
	PriceMismatch bool     `json:"priceMismatch"`
}

// CheckoutSession is the gateway-neutral view of a hosted checkout session.
type CheckoutSession struct {
	ID              string `json:"sessionId"`
	URL             string `json:"url"`
	Open            bool   `json:"-"`
	PaymentIntentID string `json:"-"`
}
