package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"tourbook/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := d.Bun.NewSelect().Model(&p).Where("user_id = ?", userID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts the row or overwrites the editable columns.
func (d *DB) UpsertProfile(ctx context.Context, p *models.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := d.Bun.NewInsert().
		Model(p).
		On("CONFLICT (user_id) DO UPDATE").
		Set("full_name = EXCLUDED.full_name").
		Set("phone = EXCLUDED.phone").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
