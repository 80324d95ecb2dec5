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

type CartService struct {
	userRepo    repository.UserRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(userRepo repository.UserRepository, cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{userRepo: userRepo, cartRepo: cartRepo, productRepo: productRepo}
}

// Snapshot returns the user's cart resolved to current products and prices.
// An empty cart is an empty snapshot, not an error.
func (s *CartService) Snapshot(ctx context.Context, userID uuid.UUID) (model.CartSnapshot, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return model.CartSnapshot{}, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return model.CartSnapshot{}, ErrUserNotFound
	}
	return readCartSnapshot(ctx, s.cartRepo, s.productRepo, userID, false)
}

func (s *CartService) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	item := &model.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.cartRepo.AddItem(ctx, item); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.cartRepo.UpdateQuantity(ctx, itemID, quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (s *CartService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.ownItem(ctx, userID, itemID); err != nil {
		return err
	}
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.cartRepo.ClearByUser(ctx, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ownItem hides other users' items behind not found.
func (s *CartService) ownItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get cart item: %w", err)
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	return nil
}
