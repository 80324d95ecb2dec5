package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

// Actor is the authenticated caller.
type Actor struct {
	ID   uuid.UUID
	Role model.Role
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// applyStockChange moves a product's stock by change and records the
// history row. It must run inside tx so both writes commit or roll back
// together with whatever else the unit of work does.
func applyStockChange(ctx context.Context, tx repository.Tx, productID uuid.UUID, change int, reason string, actorID uuid.UUID) (*model.Product, *model.StockHistory, error) {
	product, err := tx.Products().ApplyStockDelta(ctx, productID, change)
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return nil, nil, ErrNegativeStock
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil, ErrProductNotFound
	case err != nil:
		return nil, nil, fmt.Errorf("apply stock change: %w", err)
	}

	entry := &model.StockHistory{
		ProductID: productID,
		Change:    change,
		Reason:    reason,
		CreatedBy: actorID,
	}
	if err := tx.StockHistory().Append(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("append stock history: %w", err)
	}
	return product, entry, nil
}

// readCartSnapshot resolves the user's cart lines to products. With lock
// set the cart rows and then the products are row-locked in id order, so it
// must run inside a transaction.
func readCartSnapshot(ctx context.Context, carts repository.CartRepository, products repository.ProductRepository, userID uuid.UUID, lock bool) (model.CartSnapshot, error) {
	list := carts.ListByUser
	if lock {
		list = carts.LockByUser
	}
	items, err := list(ctx, userID)
	if err != nil {
		return model.CartSnapshot{}, fmt.Errorf("list cart: %w", err)
	}
	if len(items) == 0 {
		return model.NewCartSnapshot(userID, nil), nil
	}

	byID := make(map[uuid.UUID]model.Product, len(items))
	if lock {
		ids := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}
		model.SortIDs(ids)
		locked, err := products.LockByIDs(ctx, ids)
		if err != nil {
			return model.CartSnapshot{}, fmt.Errorf("lock products: %w", err)
		}
		for _, p := range locked {
			byID[p.ID] = p
		}
	} else {
		for _, item := range items {
			p, err := products.GetByID(ctx, item.ProductID)
			if err != nil {
				return model.CartSnapshot{}, fmt.Errorf("get product: %w", err)
			}
			if p != nil {
				byID[p.ID] = *p
			}
		}
	}

	lines := make([]model.CartLine, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, model.CartLine{ItemID: item.ID, Product: p, Quantity: item.Quantity})
	}
	return model.NewCartSnapshot(userID, lines), nil
}
