package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"tourbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateCall(ctx context.Context, call *models.ScheduledCall) error {
	now := time.Now().UTC()
	call.CreatedAt, call.UpdatedAt = now, now
	if _, err := d.Bun.NewInsert().Model(call).Exec(ctx); err != nil {
		return fmt.Errorf("insert scheduled call: %w", err)
	}
	return nil
}

func (d *DB) GetCall(ctx context.Context, id string) (*models.ScheduledCall, error) {
	var call models.ScheduledCall
	err := d.Bun.NewSelect().Model(&call).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

// ListByUser returns the user's calls, soonest first.
func (d *DB) ListByUser(ctx context.Context, userID string) ([]*models.ScheduledCall, error) {
	calls := make([]*models.ScheduledCall, 0)
	err := d.Bun.NewSelect().
		Model(&calls).
		Where("user_id = ?", userID).
		Order("scheduled_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return calls, nil
}

func (d *DB) UpdateCall(ctx context.Context, call *models.ScheduledCall) error {
	call.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(call).
		Column("scheduled_at", "timezone", "topic", "notes", "status", "updated_at").
		Where("id = ?", call.ID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (d *DB) DeleteCall(ctx context.Context, id, userID string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.ScheduledCall)(nil)).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
