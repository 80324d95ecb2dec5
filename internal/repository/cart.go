package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/model"
)

type CartRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	// LockByUser is ListByUser with the rows locked until the transaction
	// ends. A concurrent checkout of the same cart waits here and then sees
	// only the lines that survived the first one.
	LockByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error)
	// AddItem inserts the line or adds to the quantity of the existing (user, product) line.
	AddItem(ctx context.Context, item *model.CartItem) error
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type pgCartRepo struct{ db DBTX }

func NewCartRepository(db DBTX) CartRepository {
	return &pgCartRepo{db: db}
}

const cartItemSelect = `SELECT id, user_id, product_id, quantity, created_at, updated_at
	FROM cart_items WHERE user_id = $1 ORDER BY product_id`

func (r *pgCartRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return r.listItems(ctx, cartItemSelect, userID)
}

func (r *pgCartRepo) LockByUser(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	return r.listItems(ctx, cartItemSelect+` FOR UPDATE`, userID)
}

func (r *pgCartRepo) listItems(ctx context.Context, query string, userID uuid.UUID) ([]model.CartItem, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItem
	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgCartRepo) GetItem(ctx context.Context, itemID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, product_id, quantity, created_at, updated_at FROM cart_items WHERE id = $1`, itemID,
	).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) AddItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO cart_items (id, user_id, product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())
			  ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + $4, updated_at = NOW()
			  RETURNING id, quantity, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, item.ID, item.UserID, item.ProductID, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1`, itemID, quantity,
	)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgCartRepo) ClearByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return ct.RowsAffected(), nil
}
