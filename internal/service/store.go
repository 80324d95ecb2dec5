package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

type StoreService struct {
	userRepo    repository.UserRepository
	storeRepo   repository.StoreRepository
	productRepo repository.ProductRepository
	log         *slog.Logger
}

func NewStoreService(userRepo repository.UserRepository, storeRepo repository.StoreRepository, productRepo repository.ProductRepository, log *slog.Logger) *StoreService {
	return &StoreService{userRepo: userRepo, storeRepo: storeRepo, productRepo: productRepo, log: log}
}

// Create opens a store. Only admins create stores; the owner defaults to
// the caller and each user owns at most one store.
func (s *StoreService) Create(ctx context.Context, actor Actor, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrAccessDenied
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrStoreNameRequired
	}

	ownerID := actor.ID
	if req.OwnerID != nil {
		ownerID = *req.OwnerID
	}
	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	if owner == nil {
		return nil, ErrUserNotFound
	}

	store := &model.Store{
		Name:       name,
		Location:   strings.TrimSpace(req.Location),
		OwnerID:    owner.ID,
		OwnerName:  owner.Name,
		OwnerEmail: owner.Email,
	}
	if err := s.storeRepo.Create(ctx, store); err != nil {
		return nil, storeWriteError("create store", err)
	}
	s.log.Info("store created", "store_id", store.ID, "owner_id", owner.ID)

	resp := dto.ToStoreResponse(store)
	return &resp, nil
}

func (s *StoreService) List(ctx context.Context) ([]dto.StoreResponse, error) {
	stores, err := s.storeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	out := make([]dto.StoreResponse, 0, len(stores))
	for i := range stores {
		out = append(out, dto.ToStoreResponse(&stores[i]))
	}
	return out, nil
}

// GetByID returns the store with the products that are currently in stock.
func (s *StoreService) GetByID(ctx context.Context, id uuid.UUID) (*dto.StoreResponse, error) {
	store, err := s.storeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return s.withProducts(ctx, store)
}

// Mine returns the caller's own store.
func (s *StoreService) Mine(ctx context.Context, userID uuid.UUID) (*dto.StoreResponse, error) {
	store, err := s.storeRepo.GetByOwnerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFoundForUser
	}
	return s.withProducts(ctx, store)
}

// Update is open to admins and the store's owner. Ownership never changes.
func (s *StoreService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.UpdateStoreRequest) (*dto.StoreResponse, error) {
	store, err := s.storeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	if !actor.IsAdmin() && store.OwnerID != actor.ID {
		return nil, ErrAccessDenied
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrStoreNameRequired
		}
		store.Name = name
	}
	if req.Location != nil {
		store.Location = strings.TrimSpace(*req.Location)
	}

	if err := s.storeRepo.Update(ctx, store); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, storeWriteError("update store", err)
	}
	resp := dto.ToStoreResponse(store)
	return &resp, nil
}

func (s *StoreService) withProducts(ctx context.Context, store *model.Store) (*dto.StoreResponse, error) {
	products, err := s.productRepo.ListByStore(ctx, store.ID)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	inStock := make([]model.Product, 0, len(products))
	for _, p := range products {
		if p.Stock > 0 {
			inStock = append(inStock, p)
		}
	}
	resp := dto.ToStoreResponse(store)
	resp.Products = dto.ToProductResponses(inStock)
	return &resp, nil
}

func storeWriteError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrStoreNameTaken):
		return ErrStoreNameTaken
	case errors.Is(err, repository.ErrStoreOwnerTaken):
		return ErrOwnerHasStore
	}
	return fmt.Errorf("%s: %w", op, err)
}
