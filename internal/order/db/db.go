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

// ---------------- REFERENCES ----------------

// ResolveRef maps either identifier form to the canonical id_new.
func (d *DB) ResolveRef(ctx context.Context, ref models.OrderRef) (string, error) {
	q := d.Bun.NewSelect().Model((*models.Order)(nil)).Column("id_new").Limit(1)
	switch {
	case ref.IsUUID():
		q = q.Where("id_new = ?", ref.UUID())
	case ref.IsLegacy():
		q = q.Where("id = ?", ref.Legacy())
	default:
		return "", fmt.Errorf("%w: order reference %s", models.ErrInvalidInput, ref)
	}

	var id string
	if err := q.Scan(ctx, &id); err != nil {
		return "", notFound(err)
	}
	return id, nil
}

// GetOrderByRef resolves ref and loads the order in one call.
func (d *DB) GetOrderByRef(ctx context.Context, ref models.OrderRef) (*models.Order, error) {
	id, err := d.ResolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	return d.GetOrder(ctx, id)
}

// ---------------- ORDERS ----------------

func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = now
	if order.Travelers == nil {
		order.Travelers = []models.Traveler{}
	}
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder fetches one order by its canonical id.
func (d *DB) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id_new = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// ListByUser returns the user's orders, newest first.
func (d *DB) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	orders := []*models.Order{}
	err := d.Bun.NewSelect().
		Model(&orders).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (d *DB) UpdateTravelers(ctx context.Context, id string, travelers []models.Traveler, status models.OrderStatus) error {
	order := &models.Order{ID: id, Travelers: travelers, Status: status, UpdatedAt: time.Now().UTC()}
	res, err := d.Bun.NewUpdate().
		Model(order).
		Column("travelers", "status", "updated_at").
		Where("id_new = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update travelers: %w", err)
	}
	return requireRow(res)
}

// SetCheckoutSession stores the gateway session created for the order.
func (d *DB) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.Order)(nil)).
		Set("stripe_session_id = ?", sessionID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id_new = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store checkout session: %w", err)
	}
	return requireRow(res)
}

func (d *DB) FindBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("stripe_session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// MarkPaid records the payment ids and moves a pre-deposit order to
// deposit_paid. Orders already deposit_paid or completed keep their status;
// changed reports whether this call made the transition.
func (d *DB) MarkPaid(ctx context.Context, id, sessionID, paymentIntentID string) (previous models.OrderStatus, changed bool, err error) {
	err = d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var current models.Order
		if err := tx.NewSelect().Model(&current).Column("status").Where("id_new = ?", id).Limit(1).Scan(ctx); err != nil {
			return notFound(err)
		}
		previous = current.Status
		now := time.Now().UTC()

		if sessionID != "" || paymentIntentID != "" {
			q := tx.NewUpdate().
				Model((*models.Order)(nil)).
				Set("updated_at = ?", now).
				Where("id_new = ?", id)
			if sessionID != "" {
				q = q.Set("stripe_session_id = ?", sessionID)
			}
			if paymentIntentID != "" {
				q = q.Set("stripe_payment_intent_id = ?", paymentIntentID)
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("store payment ids: %w", err)
			}
		}

		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("status = ?", models.StatusDepositPaid).
			Set("updated_at = ?", now).
			Where("id_new = ?", id).
			Where("status NOT IN (?)", bun.In([]models.OrderStatus{models.StatusDepositPaid, models.StatusCompleted})).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		changed = n > 0
		return nil
	})
	return previous, changed, err
}

// DeleteOrder removes a draft order owned by userID. Ownership and state are
// checked by the caller; the predicate repeats them so a concurrent change
// cannot slip through.
func (d *DB) DeleteOrder(ctx context.Context, id, userID string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Order)(nil)).
		Where("id_new = ?", id).
		Where("user_id = ?", userID).
		Where("status = ?", models.StatusDraft).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return requireRow(res)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrOrderNotFound
	}
	return fmt.Errorf("query order: %w", err)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return models.ErrOrderNotFound
	}
	return nil
}
