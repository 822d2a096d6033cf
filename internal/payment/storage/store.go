package storage

import (
	"context"

	"tourbook/internal/models"
)

// Store journals every verified Stripe event the reconciler sees.
type Store interface {
	// RecordEvent inserts the event unless its id was already journaled and
	// reports whether a row was written.
	RecordEvent(ctx context.Context, event *models.WebhookEvent) (bool, error)
	ListUnmatched(ctx context.Context, limit int) ([]*models.WebhookEvent, error)
}
