package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type pgNotificationRepo struct{ db DBTX }

func NewNotificationRepository(db DBTX) NotificationRepository {
	return &pgNotificationRepo{db: db}
}

func (r *pgNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, store_id, message, type, is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, FALSE, NOW()) RETURNING created_at`,
		n.ID, n.UserID, n.StoreID, n.Message, n.Type,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	n := &model.Notification{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, store_id, message, type, is_read, created_at FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.UserID, &n.StoreID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, store_id, message, type, is_read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var list []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.StoreID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *pgNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
