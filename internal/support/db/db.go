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

func (d *DB) CreateTicket(ctx context.Context, ticket *models.SupportTicket) error {
	now := time.Now().UTC()
	ticket.CreatedAt, ticket.UpdatedAt = now, now
	_, err := d.Bun.NewInsert().Model(ticket).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert support ticket: %w", err)
	}
	return nil
}

// GetTicket loads a ticket and its replies, oldest reply first.
func (d *DB) GetTicket(ctx context.Context, id string) (*models.SupportTicket, error) {
	var ticket models.SupportTicket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Relation("Replies", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("str.created_at ASC")
		}).
		Where("st.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) ListByUser(ctx context.Context, userID string) ([]*models.SupportTicket, error) {
	tickets := make([]*models.SupportTicket, 0)
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// AddReply stores the reply and bumps the ticket's updated_at in one
// transaction.
func (d *DB) AddReply(ctx context.Context, reply *models.TicketReply) error {
	reply.CreatedAt = time.Now().UTC()
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(reply).Exec(ctx); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}
		res, err := tx.NewUpdate().
			Model((*models.SupportTicket)(nil)).
			Set("updated_at = ?", reply.CreatedAt).
			Where("id = ?", reply.TicketID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("touch ticket: %w", err)
		}
		return requireRow(res)
	})
}

func (d *DB) SetStatus(ctx context.Context, id string, status models.TicketStatus) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.SupportTicket)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
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
