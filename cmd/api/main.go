package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"

	"github.com/flicky/storefront/internal/config"
	"github.com/flicky/storefront/internal/handler"
	"github.com/flicky/storefront/internal/mailer"
	"github.com/flicky/storefront/internal/repository"
	"github.com/flicky/storefront/internal/service"
	"github.com/flicky/storefront/internal/telemetry"
	"github.com/flicky/storefront/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Error("telemetry shutdown", "error", err)
		}
	}()
	metrics, err := telemetry.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		return fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	log.Info("connected to Redis")

	// RabbitMQ: one channel consumes, one publishes.
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	defer consumeCh.Close()

	publishCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open RabbitMQ channel: %w", err)
	}
	defer publishCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh, worker.NewTopology(cfg.RabbitMQ.EmailQueue)); err != nil {
		return fmt.Errorf("setup RabbitMQ: %w", err)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	storeRepo := repository.NewStoreRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	historyRepo := repository.NewStockHistoryRepository(dbPool)
	notificationRepo := repository.NewNotificationRepository(dbPool)
	txm := repository.NewTxManager(dbPool, cfg.DB.TxTimeout)

	// Services
	reorder := cfg.Inventory.DefaultReorderLevel
	cache := service.NewProductCache(redisClient, log)
	publisher := worker.NewPublisher(publishCh, cfg.RabbitMQ.EmailQueue)

	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	productSvc := service.NewProductService(productRepo, storeRepo, cache)
	storeSvc := service.NewStoreService(userRepo, storeRepo, productRepo, log)
	cartSvc := service.NewCartService(userRepo, cartRepo, productRepo)
	notificationSvc := service.NewNotificationService(storeRepo, notificationRepo, publisher, reorder, log, metrics)
	orderSvc := service.NewOrderService(userRepo, orderRepo, txm, notificationSvc, cache, reorder, log, metrics)
	inventorySvc := service.NewInventoryService(
		storeRepo, productRepo, historyRepo, txm, notificationSvc, cache,
		reorder, cfg.Inventory.ExpiryDays, log, metrics,
	)

	// Workers
	sender, err := mailer.New(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("create mailer: %w", err)
	}
	emailWorker := worker.NewEmailWorker(consumeCh, cfg.RabbitMQ.EmailQueue, sender, redisClient, log)
	if err := emailWorker.Start(ctx); err != nil {
		return fmt.Errorf("start email worker: %w", err)
	}

	scheduler, err := worker.NewAlertScheduler(cfg.Inventory.AlertSchedule, inventorySvc, log)
	if err != nil {
		return err
	}
	scheduler.Start()

	// Router
	router := handler.NewRouter(handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, log),
		Store:        handler.NewStoreHandler(storeSvc, log),
		Product:      handler.NewProductHandler(productSvc, log),
		Cart:         handler.NewCartHandler(cartSvc, log),
		Order:        handler.NewOrderHandler(orderSvc, log),
		Inventory:    handler.NewInventoryHandler(inventorySvc, log),
		Notification: handler.NewNotificationHandler(notificationSvc, log),
		Health: handler.NewHealthHandler(map[string]handler.Check{
			"postgres": handler.PostgresCheck(dbPool),
			"redis":    handler.RedisCheck(redisClient),
			"rabbitmq": handler.RabbitMQCheck(amqpConn),
		}),
	}, cfg.JWT.Secret, otelgin.Middleware(cfg.Telemetry.ServiceName))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	scheduler.Stop()
	emailWorker.Stop()
	cancel()
	log.Info("server stopped")
	return nil
}
