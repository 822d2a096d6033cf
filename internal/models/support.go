package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// NormalizePriority falls back to normal for anything outside the enum.
func NormalizePriority(raw string) TicketPriority {
	switch p := TicketPriority(strings.ToLower(strings.TrimSpace(raw))); p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return p
	}
	return PriorityNormal
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

type SupportTicket struct {
	bun.BaseModel `bun:"table:support_tickets,alias:st"`

	ID        string         `bun:"id,pk" json:"id"`
	UserID    string         `bun:"user_id,notnull" json:"userId"`
	OrderID   string         `bun:"order_id,nullzero" json:"orderId,omitempty"`
	Subject   string         `bun:"subject,notnull" json:"subject"`
	Message   string         `bun:"message,notnull" json:"message"`
	Priority  TicketPriority `bun:"priority,notnull" json:"priority"`
	Status    TicketStatus   `bun:"status,notnull" json:"status"`
	CreatedAt time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Replies []*TicketReply `bun:"rel:has-many,join:id=ticket_id" json:"replies,omitempty"`
}

type TicketReply struct {
	bun.BaseModel `bun:"table:support_ticket_replies,alias:str"`

	ID        string    `bun:"id,pk" json:"id"`
	TicketID  string    `bun:"ticket_id,notnull" json:"ticketId"`
	UserID    string    `bun:"user_id,notnull" json:"userId"`
	Message   string    `bun:"message,notnull" json:"message"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

type CreateTicketRequest struct {
	OrderID  string `json:"orderId"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Priority string `json:"priority"`
}

type CreateReplyRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}
