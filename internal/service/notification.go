package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/storefront/internal/mailer"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/telemetry"
)

// Dispatcher hands an email to the delivery pipeline without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg model.EmailMessage) error
}

// LowStockNotifier is told about products whose stock fell to or below
// their threshold.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, product model.Product) error
}

type NotificationService struct {
	storeRepo        repository.StoreRepository
	notificationRepo repository.NotificationRepository
	dispatcher       Dispatcher
	defaultLevel     int
	log              *slog.Logger
	metrics          *telemetry.Metrics
}

func NewNotificationService(
	storeRepo repository.StoreRepository,
	notificationRepo repository.NotificationRepository,
	dispatcher Dispatcher,
	defaultLevel int,
	log *slog.Logger,
	metrics *telemetry.Metrics,
) *NotificationService {
	return &NotificationService{
		storeRepo:        storeRepo,
		notificationRepo: notificationRepo,
		dispatcher:       dispatcher,
		defaultLevel:     defaultLevel,
		log:              log,
		metrics:          metrics,
	}
}

// Notify records a notification for the store owner and queues an email.
// A missing store is logged and yields no row. Email failures never undo
// the row.
func (s *NotificationService) Notify(ctx context.Context, storeID uuid.UUID, typ model.NotificationType, message string) (*model.Notification, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("get store: %w", err)
	}
	if store == nil {
		s.log.Warn("notification store not found", "store_id", storeID)
		return nil, nil
	}

	n := &model.Notification{UserID: store.OwnerID, StoreID: store.ID, Message: message, Type: typ}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	subject, html, err := mailer.AlertEmail(store, message)
	if err == nil {
		err = s.dispatch(ctx, store, subject, html)
	}
	if err != nil {
		s.metrics.NotificationFailed(ctx)
		s.log.Error("queue notification email", "notification_id", n.ID, "store_id", store.ID, "error", err)
	}
	return n, nil
}

func (s *NotificationService) NotifyLowStock(ctx context.Context, product model.Product) error {
	threshold := product.LowStockThreshold(s.defaultLevel)
	msg := fmt.Sprintf("Low stock alert: %s has only %d units left (threshold: %d)", product.Name, product.Stock, threshold)
	_, err := s.Notify(ctx, product.StoreID, model.NotificationLowStock, msg)
	return err
}

// NotifyDigest records one row per flagged product and sends the owner a
// single summary email.
func (s *NotificationService) NotifyDigest(ctx context.Context, store *model.Store, lowStock, expiring []model.Product, expiryDays int) error {
	for _, p := range lowStock {
		msg := fmt.Sprintf("Daily low stock alert: %s has only %d units left (threshold: %d)",
			p.Name, p.Stock, p.LowStockThreshold(s.defaultLevel))
		if err := s.record(ctx, store, model.NotificationLowStock, msg); err != nil {
			return err
		}
	}
	for _, p := range expiring {
		msg := fmt.Sprintf("Expiry alert: %s expires on %s", p.Name, p.ExpiryDate.Format("2006-01-02"))
		if err := s.record(ctx, store, model.NotificationExpiry, msg); err != nil {
			return err
		}
	}

	subject, html, err := mailer.DigestEmail(store, lowStock, expiring, expiryDays)
	if err != nil {
		return err
	}
	if err := s.dispatch(ctx, store, subject, html); err != nil {
		s.metrics.NotificationFailed(ctx)
		s.log.Error("queue digest email", "store_id", store.ID, "error", err)
	}
	return nil
}

func (s *NotificationService) record(ctx context.Context, store *model.Store, typ model.NotificationType, message string) error {
	n := &model.Notification{UserID: store.OwnerID, StoreID: store.ID, Message: message, Type: typ}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, store *model.Store, subject, html string) error {
	if s.dispatcher == nil || store.OwnerEmail == "" {
		return nil
	}
	return s.dispatcher.Dispatch(ctx, model.EmailMessage{
		ID:      uuid.New(),
		To:      store.OwnerEmail,
		Subject: subject,
		HTML:    html,
	})
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	list, err := s.notificationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}
	if n == nil || n.UserID != userID {
		return ErrNotificationNotFound
	}
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
