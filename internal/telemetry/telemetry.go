package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/flicky/storefront/internal/config"
)

const instrumentationName = "github.com/flicky/storefront"

// Setup installs global tracer and meter providers exporting over OTLP/HTTP.
// With no endpoint configured the globals stay no-op and the returned
// shutdown does nothing.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (shutdown func(context.Context) error, err error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)

	metricExporter, err := otlpmetrichttp.New(ctx,
		otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint),
		otlpmetrichttp.WithInsecure(),
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}

// Metrics holds the service counters. The zero value and a nil *Metrics
// record nothing.
type Metrics struct {
	ordersPlaced     metric.Int64Counter
	ordersFailed     metric.Int64Counter
	stockAdjusted    metric.Int64Counter
	notificationsErr metric.Int64Counter
}

// NewMetrics registers the counters on mp, usually otel.GetMeterProvider().
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)
	var (
		m   Metrics
		err error
	)
	if m.ordersPlaced, err = meter.Int64Counter("storefront.orders.placed",
		metric.WithDescription("Orders committed by checkout")); err != nil {
		return nil, err
	}
	if m.ordersFailed, err = meter.Int64Counter("storefront.orders.failed",
		metric.WithDescription("Checkouts rolled back")); err != nil {
		return nil, err
	}
	if m.stockAdjusted, err = meter.Int64Counter("storefront.stock.adjusted",
		metric.WithDescription("Manual stock adjustments")); err != nil {
		return nil, err
	}
	if m.notificationsErr, err = meter.Int64Counter("storefront.notifications.failed",
		metric.WithDescription("Best-effort notifications that failed")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) OrderPlaced(ctx context.Context) {
	if m != nil && m.ordersPlaced != nil {
		m.ordersPlaced.Add(ctx, 1)
	}
}

func (m *Metrics) OrderFailed(ctx context.Context) {
	if m != nil && m.ordersFailed != nil {
		m.ordersFailed.Add(ctx, 1)
	}
}

func (m *Metrics) StockAdjusted(ctx context.Context) {
	if m != nil && m.stockAdjusted != nil {
		m.stockAdjusted.Add(ctx, 1)
	}
}

func (m *Metrics) NotificationFailed(ctx context.Context) {
	if m != nil && m.notificationsErr != nil {
		m.notificationsErr.Add(ctx, 1)
	}
}

// Tracer returns the package-wide tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
