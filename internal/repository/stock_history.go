package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
)

// StockHistoryRepository is append-only.
type StockHistoryRepository interface {
	Append(ctx context.Context, entry *model.StockHistory) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockHistory, error)
}

type pgStockHistoryRepo struct{ db DBTX }

func NewStockHistoryRepository(db DBTX) StockHistoryRepository {
	return &pgStockHistoryRepo{db: db}
}

func (r *pgStockHistoryRepo) Append(ctx context.Context, entry *model.StockHistory) error {
	entry.ID = uuid.New()
	err := r.db.QueryRow(ctx,
		`INSERT INTO stock_history (id, product_id, change, reason, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		entry.ID, entry.ProductID, entry.Change, entry.Reason, entry.CreatedBy,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append stock history: %w", err)
	}
	return nil
}

func (r *pgStockHistoryRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.StockHistory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, product_id, change, reason, created_by, created_at
		 FROM stock_history WHERE product_id = $1 ORDER BY created_at DESC`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	defer rows.Close()

	var entries []model.StockHistory
	for rows.Next() {
		var e model.StockHistory
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Change, &e.Reason, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stock history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
