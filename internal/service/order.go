package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/telemetry"
)

const notifyTimeout = 5 * time.Second

type OrderService struct {
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	txm          repository.TxManager
	notifier     LowStockNotifier
	cache        *ProductCache
	defaultLevel int
	log          *slog.Logger
	metrics      *telemetry.Metrics
	tracer       trace.Tracer
}

func NewOrderService(
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	txm repository.TxManager,
	notifier LowStockNotifier,
	cache *ProductCache,
	defaultLevel int,
	log *slog.Logger,
	metrics *telemetry.Metrics,
) *OrderService {
	return &OrderService{
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		txm:          txm,
		notifier:     notifier,
		cache:        cache,
		defaultLevel: defaultLevel,
		log:          log,
		metrics:      metrics,
		tracer:       telemetry.Tracer(),
	}
}

// PlaceOrder turns the user's cart into a PENDING order. Stock decrement,
// order and line creation, history rows and the cart clear commit together
// or not at all. Low-stock notifications go out only after commit and
// their failures are logged, never returned.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID) (*model.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.PlaceOrder",
		trace.WithAttributes(attribute.String("user.id", userID.String())))
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	var (
		order *model.Order
		low   []model.Product
	)
	err = s.txm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		order, low = nil, nil

		snapshot, err := readCartSnapshot(ctx, tx.Carts(), tx.Products(), userID, true)
		if err != nil {
			return err
		}
		if snapshot.IsEmpty() {
			return ErrEmptyCart
		}

		o := &model.Order{UserID: userID, Status: model.OrderStatusPending, Total: snapshot.Total()}
		if err := tx.Orders().Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		reason := "Order " + o.ID.String()
		for _, line := range snapshot.Lines {
			outOfStock := &OutOfStockError{Product: line.Product.Name, Available: line.Product.Stock, Requested: line.Quantity}
			if line.Product.Stock < line.Quantity {
				return outOfStock
			}
			updated, _, err := applyStockChange(ctx, tx, line.Product.ID, -line.Quantity, reason, userID)
			if errors.Is(err, ErrNegativeStock) {
				return outOfStock
			}
			if err != nil {
				return err
			}

			item := model.OrderItem{
				OrderID:   o.ID,
				ProductID: line.Product.ID,
				Quantity:  line.Quantity,
				Price:     line.Product.Price,
			}
			if err := tx.Orders().CreateItem(ctx, &item); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			item.Product = updated
			o.Items = append(o.Items, item)

			if updated.IsLowStock(s.defaultLevel) {
				low = append(low, *updated)
			}
		}

		cleared, err := tx.Carts().ClearByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		if cleared != int64(len(snapshot.Lines)) {
			return ErrCartChanged
		}
		order = o
		return nil
	})
	if err != nil {
		s.metrics.OrderFailed(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.OrderPlaced(ctx)
	span.SetAttributes(attribute.String("order.id", order.ID.String()), attribute.Int("order.lines", len(order.Items)))

	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	s.cache.Invalidate(ctx, ids...)
	s.notifyLowStock(ctx, order.ID, low)

	return order, nil
}

func (s *OrderService) notifyLowStock(ctx context.Context, orderID uuid.UUID, products []model.Product) {
	if s.notifier == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	for _, p := range products {
		nctx, cancel := context.WithTimeout(base, notifyTimeout)
		if err := s.notifier.NotifyLowStock(nctx, p); err != nil {
			s.metrics.NotificationFailed(nctx)
			s.log.Error("low stock notification failed",
				"order_id", orderID, "product_id", p.ID, "store_id", p.StoreID, "error", err)
		}
		cancel()
	}
}

// GetByID returns the order only to its owner; anyone else sees not found.
func (s *OrderService) GetByID(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Cancel moves the caller's own order to CANCELLED. Stock is not returned.
func (s *OrderService) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case model.OrderStatusCancelled:
		return nil, ErrOrderCancelled
	case model.OrderStatusDelivered:
		return nil, ErrOrderDelivered
	case model.OrderStatusShipped:
		return nil, ErrOrderShipped
	}
	return s.transition(ctx, order, model.OrderStatusCancelled)
}

// UpdateStatus is the admin transition; it follows the same table as Cancel.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status string) (*model.Order, error) {
	next, err := model.ParseOrderStatus(status)
	if err != nil {
		return nil, newError(ErrInvalidInput, "Invalid order status: "+status)
	}
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.transition(ctx, order, next)
}

func (s *OrderService) transition(ctx context.Context, order *model.Order, next model.OrderStatus) (*model.Order, error) {
	if !order.Status.CanTransitionTo(next) {
		return nil, invalidTransition(order.Status, next)
	}
	ok, err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	s.log.Info("order status changed", "order_id", order.ID, "from", order.Status, "to", next)

	updated, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if updated == nil {
		return nil, ErrOrderNotFound
	}
	return updated, nil
}
