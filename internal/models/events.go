package models

import "time"

// OrderEvent is the payload published on the tourbook.order.* topics.
type OrderEvent struct {
	OrderID    string      `json:"orderId"`
	UserID     string      `json:"userId"`
	Status     OrderStatus `json:"status"`
	SessionID  string      `json:"sessionId,omitempty"`
	AmountPaid int64       `json:"amountPaidCents,omitempty"`
	Currency   string      `json:"currency,omitempty"`
	OccurredAt time.Time   `json:"occurredAt"`
}

func NewOrderEvent(o *Order) OrderEvent {
	return OrderEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		SessionID:  o.StripeSessionID,
		Currency:   o.Currency,
		OccurredAt: time.Now().UTC(),
	}
}
