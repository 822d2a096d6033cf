package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"tourbook/internal/logger"
	"tourbook/internal/models"
)

type BunStore struct {
	db  *bun.DB
	log *logger.Logger
}

func NewBunStore(db *bun.DB, log *logger.Logger) *BunStore {
	return &BunStore{db: db, log: log}
}

func (s *BunStore) RecordEvent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	res, err := s.db.NewInsert().
		Model(event).
		On("CONFLICT (event_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("journal webhook event %s: %w", event.EventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		s.log.LogDatabase("INSERT", "webhook_events", fmt.Sprintf("Event %s already journaled", event.EventID))
	}
	return n > 0, nil
}

// ListUnmatched returns the manual-investigation queue, oldest first.
func (s *BunStore) ListUnmatched(ctx context.Context, limit int) ([]*models.WebhookEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	events := []*models.WebhookEvent{}
	err := s.db.NewSelect().
		Model(&events).
		Where("outcome = ?", models.WebhookUnmatched).
		Order("received_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unmatched webhook events: %w", err)
	}
	return events, nil
}
