package models

import (
	"time"

	"github.com/uptrace/bun"
)

type WebhookOutcome string

const (
	WebhookMatched   WebhookOutcome = "matched"
	WebhookUnmatched WebhookOutcome = "unmatched"
	WebhookIgnored   WebhookOutcome = "ignored"
)

// WebhookEvent journals each verified gateway event once. Unmatched rows are
// the queue for manual investigation.
type WebhookEvent struct {
	bun.BaseModel `bun:"table:webhook_events,alias:we"`

	EventID    string         `bun:"event_id,pk" json:"eventId"`
	Type       string         `bun:"type,notnull" json:"type"`
	OrderID    string         `bun:"order_id,nullzero" json:"orderId,omitempty"`
	SessionID  string         `bun:"session_id,nullzero" json:"sessionId,omitempty"`
	Outcome    WebhookOutcome `bun:"outcome,notnull" json:"outcome"`
	ReceivedAt time.Time      `bun:"received_at,notnull,default:current_timestamp" json:"receivedAt"`
}
