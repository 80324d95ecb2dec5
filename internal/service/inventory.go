package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/telemetry"
)

// Alerts lists products needing attention.
type Alerts struct {
	LowStock     []model.Product
	ExpiringSoon []model.Product
}

type InventoryService struct {
	storeRepo    repository.StoreRepository
	productRepo  repository.ProductRepository
	historyRepo  repository.StockHistoryRepository
	txm          repository.TxManager
	notifier     *NotificationService
	cache        *ProductCache
	defaultLevel int
	expiryDays   int
	log          *slog.Logger
	metrics      *telemetry.Metrics
	now          func() time.Time
}

func NewInventoryService(
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	historyRepo repository.StockHistoryRepository,
	txm repository.TxManager,
	notifier *NotificationService,
	cache *ProductCache,
	defaultLevel, expiryDays int,
	log *slog.Logger,
	metrics *telemetry.Metrics,
) *InventoryService {
	return &InventoryService{
		storeRepo:    storeRepo,
		productRepo:  productRepo,
		historyRepo:  historyRepo,
		txm:          txm,
		notifier:     notifier,
		cache:        cache,
		defaultLevel: defaultLevel,
		expiryDays:   expiryDays,
		log:          log,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Adjust applies a signed stock change as a relative delta, serialized with
// checkouts on the same product, and records it in the stock history.
func (s *InventoryService) Adjust(ctx context.Context, actor Actor, productID uuid.UUID, change int, reason string) (*model.Product, *model.StockHistory, error) {
	if change == 0 {
		return nil, nil, ErrZeroChange
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	if err := s.authorizeStore(ctx, actor, product.StoreID); err != nil {
		return nil, nil, err
	}

	if reason == "" {
		reason = "Consumption/adjust"
		if change > 0 {
			reason = "Restock/adjust"
		}
	}

	var (
		updated *model.Product
		entry   *model.StockHistory
	)
	err = s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		updated, entry, err = applyStockChange(ctx, tx, productID, change, reason, actor.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.StockAdjusted(ctx)
	s.cache.Invalidate(ctx, productID)
	s.log.Info("stock adjusted", "product_id", productID, "change", change, "stock", updated.Stock, "actor_id", actor.ID)
	return updated, entry, nil
}

func (s *InventoryService) Restock(ctx context.Context, actor Actor, productID uuid.UUID, quantity int, reason string) (*model.Product, *model.StockHistory, error) {
	if quantity < 1 {
		return nil, nil, ErrInvalidQuantity
	}
	return s.Adjust(ctx, actor, productID, quantity, reason)
}

func (s *InventoryService) StoreInventory(ctx context.Context, actor Actor, storeID uuid.UUID) ([]model.Product, error) {
	if err := s.authorizeStore(ctx, actor, storeID); err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("list store products: %w", err)
	}
	return products, nil
}

// Alerts covers every store for admins and the caller's own store otherwise.
func (s *InventoryService) Alerts(ctx context.Context, actor Actor) (*Alerts, error) {
	var storeID *uuid.UUID
	if !actor.IsAdmin() {
		store, err := s.storeRepo.GetByOwnerID(ctx, actor.ID)
		if err != nil {
			return nil, fmt.Errorf("get store: %w", err)
		}
		if store == nil {
			return &Alerts{LowStock: []model.Product{}, ExpiringSoon: []model.Product{}}, nil
		}
		storeID = &store.ID
	}
	return s.alerts(ctx, storeID)
}

func (s *InventoryService) alerts(ctx context.Context, storeID *uuid.UUID) (*Alerts, error) {
	low, err := s.productRepo.ListLowStock(ctx, storeID, s.defaultLevel)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	expiring, err := s.productRepo.ListExpiring(ctx, storeID, s.now().AddDate(0, 0, s.expiryDays))
	if err != nil {
		return nil, fmt.Errorf("list expiring: %w", err)
	}
	if low == nil {
		low = []model.Product{}
	}
	if expiring == nil {
		expiring = []model.Product{}
	}
	return &Alerts{LowStock: low, ExpiringSoon: expiring}, nil
}

func (s *InventoryService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListLowStock(ctx, nil, s.defaultLevel)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

func (s *InventoryService) History(ctx context.Context, actor Actor, productID uuid.UUID) ([]model.StockHistory, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.authorizeStore(ctx, actor, product.StoreID); err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock history: %w", err)
	}
	return entries, nil
}

// SendDailyAlerts notifies every store owner with low-stock or expiring
// products. A failing store is logged and the sweep moves on; the returned
// error joins all per-store failures.
func (s *InventoryService) SendDailyAlerts(ctx context.Context) error {
	stores, err := s.storeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}

	var errs []error
	notified := 0
	for i := range stores {
		store := &stores[i]
		a, err := s.alerts(ctx, &store.ID)
		if err == nil && len(a.LowStock) == 0 && len(a.ExpiringSoon) == 0 {
			continue
		}
		if err == nil {
			err = s.notifier.NotifyDigest(ctx, store, a.LowStock, a.ExpiringSoon, s.expiryDays)
		}
		if err != nil {
			s.log.Error("inventory alert failed", "store_id", store.ID, "error", err)
			errs = append(errs, fmt.Errorf("store %s: %w", store.ID, err))
			continue
		}
		notified++
	}
	s.log.Info("inventory alert sweep done", "stores", len(stores), "notified", notified, "failed", len(errs))
	return errors.Join(errs...)
}

// authorizeStore allows admins and the store's owner.
func (s *InventoryService) authorizeStore(ctx context.Context, actor Actor, storeID uuid.UUID) error {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		return ErrStoreNotFound
	}
	if actor.IsAdmin() || store.OwnerID == actor.ID {
		return nil
	}
	return ErrAccessDenied
}
