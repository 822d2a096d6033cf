package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CallStatus string

const (
	CallPending   CallStatus = "pending"
	CallConfirmed CallStatus = "confirmed"
	CallCanceled  CallStatus = "canceled"
)

type ScheduledCall struct {
	bun.BaseModel `bun:"table:scheduled_calls,alias:sc"`

	ID              string     `bun:"id,pk" json:"id"`
	UserID          string     `bun:"user_id,notnull" json:"userId"`
	ScheduledAt     time.Time  `bun:"scheduled_at,notnull" json:"scheduledAt"`
	Timezone        string     `bun:"timezone,notnull" json:"timezone"`
	Topic           string     `bun:"topic,nullzero" json:"topic"`
	Notes           string     `bun:"notes,nullzero" json:"notes"`
	MeetingLink     string     `bun:"meeting_link,notnull" json:"meetingLink"`
	Status          CallStatus `bun:"status,notnull" json:"status"`
	DurationMinutes int        `bun:"duration_minutes,notnull" json:"durationMinutes"`
	CreatedAt       time.Time  `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

type ScheduleCallRequest struct {
	ScheduledAt     time.Time `json:"scheduledAt" validate:"required"`
	Timezone        string    `json:"timezone"`
	Topic           string    `json:"topic" validate:"max=200"`
	Notes           string    `json:"notes" validate:"max=2000"`
	DurationMinutes int       `json:"durationMinutes" validate:"omitempty,min=15,max=120"`
}

type UpdateCallRequest struct {
	ScheduledAt *time.Time  `json:"scheduledAt"`
	Timezone    *string     `json:"timezone"`
	Topic       *string     `json:"topic" validate:"omitempty,max=200"`
	Notes       *string     `json:"notes" validate:"omitempty,max=2000"`
	Status      *CallStatus `json:"status" validate:"omitempty,oneof=pending confirmed canceled"`
}
