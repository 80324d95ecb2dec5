package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

type ProductService struct {
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	cache       *ProductCache
}

func NewProductService(productRepo repository.ProductRepository, storeRepo repository.StoreRepository, cache *ProductCache) *ProductService {
	return &ProductService{productRepo: productRepo, storeRepo: storeRepo, cache: cache}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.Price == nil {
		return nil, newError(ErrInvalidInput, "Price is required")
	}
	if req.Price.IsNegative() {
		return nil, newError(ErrInvalidInput, "Price must not be negative")
	}
	store, err := s.storeRepo.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}

	product := &model.Product{
		StoreID:      req.StoreID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        *req.Price,
		Stock:        req.Stock,
		ReorderLevel: req.ReorderLevel,
		ExpiryDate:   req.ExpiryDate,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := dto.ToProductResponse(product)
	return &resp, nil
}

// GetByID serves catalog fields from the cache but always reads stock from
// the database, so a checkout racing the cache fill is never shown stale.
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		stock, found, err := s.productRepo.GetStock(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product stock: %w", err)
		}
		if !found {
			s.cache.Invalidate(ctx, id)
			return nil, ErrProductNotFound
		}
		cached.Stock = stock
		resp := dto.ToProductResponse(cached)
		return &resp, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	s.cache.Set(ctx, product)

	resp := dto.ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		Limit:    req.Limit,
		Offset:   (req.Page - 1) * req.Limit,
		Search:   req.Search,
		Category: req.Category,
		Sort:     req.Sort,
		Order:    req.Order,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &dto.ProductListResponse{
		Products: dto.ToProductResponses(products),
		Total:    total,
		Page:     req.Page,
		Limit:    req.Limit,
	}, nil
}

// Update edits catalog fields; the stored stock is returned untouched.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, newError(ErrInvalidInput, "Price must not be negative")
		}
		product.Price = *req.Price
	}
	if req.ReorderLevel != nil {
		product.ReorderLevel = req.ReorderLevel
	}
	if req.ExpiryDate != nil {
		product.ExpiryDate = req.ExpiryDate
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.Invalidate(ctx, id)
	resp := dto.ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		if errors.Is(err, repository.ErrProductReferenced) {
			return newError(ErrInvalidState, "Product has orders and cannot be deleted")
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}
