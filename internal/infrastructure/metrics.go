package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

const (
	metricsNamespace = "pattern_queue"

	statusSuccess = "success"
	statusError   = "error"
)

type (
	Metrics interface {
		queue.Metrics

		RecordPublishRetry(ctx context.Context, pattern string)
		RecordCommand(ctx context.Context, command string, duration time.Duration, err error)
		Handler() http.Handler
		Shutdown(ctx context.Context) error
	}

	OTELMetrics struct {
		meterProvider *sdkmetric.MeterProvider
		meter         metric.Meter
		logger        *Logger

		pushTotal        metric.Int64Counter
		provisionTotal   metric.Int64Counter
		deliveryTotal    metric.Int64Counter
		deliveryDuration metric.Float64Histogram
		publishRetries   metric.Int64Counter
		commandDuration  metric.Float64Histogram
	}
)

func NewMetrics(ctx context.Context, cfg config.ServiceConfig, logger *Logger) (Metrics, error) {
	if !cfg.Telemetry.Metrics.Enabled {
		logger.Info().Msg("metrics disabled, using NoOp implementation")

		return &NoOpMetrics{}, nil
	}

	return NewOTELMetrics(ctx, cfg, logger)
}

func NewOTELMetrics(ctx context.Context, cfg config.ServiceConfig, logger *Logger) (*OTELMetrics, error) {
	endpoint := fmt.Sprintf("%s:%s", cfg.Telemetry.OtelGRPCHost, cfg.Telemetry.OtelGRPCPort)

	conn, err := grpc.NewClient(
		endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTEL collector: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg.AppConfig)
	if err != nil {
		return nil, err
	}

	return newOTELMetrics(
		sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
			sdkmetric.WithResource(res),
		),
		cfg.AppConfig.ServiceVersion,
		logger,
		endpoint,
	)
}

func newOTELMetrics(meterProvider *sdkmetric.MeterProvider, version string, logger *Logger, endpoint string) (*OTELMetrics, error) {
	otel.SetMeterProvider(meterProvider)

	meter := meterProvider.Meter(
		metricsNamespace,
		metric.WithInstrumentationVersion(version),
	)

	provider := &OTELMetrics{
		meterProvider: meterProvider,
		meter:         meter,
		logger:        logger.Component("metrics"),
	}

	if err := provider.initializeMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	provider.logger.Info().
		Str("otel_endpoint", endpoint).
		Msg("OTEL metrics provider initialized successfully")

	return provider, nil
}

func newResource(ctx context.Context, app config.AppConfig) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(app.ServiceName),
			semconv.ServiceVersionKey.String(app.ServiceVersion),
			semconv.ServiceInstanceIDKey.String(app.CommitSHA),
			semconv.DeploymentEnvironmentKey.String(app.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	return res, nil
}

func (om *OTELMetrics) initializeMetrics() error {
	var err error

	om.pushTotal, err = om.meter.Int64Counter(
		"queue_pushes_total",
		metric.WithDescription("Total number of messages pushed"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_pushes_total counter: %w", err)
	}

	om.provisionTotal, err = om.meter.Int64Counter(
		"queue_wait_queue_provisions_total",
		metric.WithDescription("Total number of wait queue provisioning round trips"),
		metric.WithUnit("{provision}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_wait_queue_provisions_total counter: %w", err)
	}

	om.deliveryTotal, err = om.meter.Int64Counter(
		"queue_deliveries_total",
		metric.WithDescription("Total number of consumed messages by outcome"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_deliveries_total counter: %w", err)
	}

	om.deliveryDuration, err = om.meter.Float64Histogram(
		"queue_delivery_duration_seconds",
		metric.WithDescription("Time from delivery to acknowledgement in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create queue_delivery_duration_seconds histogram: %w", err)
	}

	om.publishRetries, err = om.meter.Int64Counter(
		"publisher_retries_total",
		metric.WithDescription("Total number of push retries by the publisher"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return fmt.Errorf("failed to create publisher_retries_total counter: %w", err)
	}

	om.commandDuration, err = om.meter.Float64Histogram(
		"command_duration_seconds",
		metric.WithDescription("Duration of application commands in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("failed to create command_duration_seconds histogram: %w", err)
	}

	return nil
}

func (om *OTELMetrics) RecordPush(ctx context.Context, pattern string, delayed bool, err error) {
	om.pushTotal.Add(ctx, 1,
		metric.WithAttributes(
			PatternAttr(pattern),
			DelayedAttr(delayed),
			StatusAttr(status(err)),
		),
	)
}

func (om *OTELMetrics) RecordProvision(ctx context.Context, waitQueue string, err error) {
	om.provisionTotal.Add(ctx, 1,
		metric.WithAttributes(
			WaitQueueAttr(waitQueue),
			StatusAttr(status(err)),
		),
	)
}

func (om *OTELMetrics) RecordDelivery(ctx context.Context, pattern, outcome string, duration time.Duration) {
	om.deliveryTotal.Add(ctx, 1,
		metric.WithAttributes(
			PatternAttr(pattern),
			OutcomeAttr(outcome),
		),
	)

	om.deliveryDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			PatternAttr(pattern),
			OutcomeAttr(outcome),
		),
	)
}

func (om *OTELMetrics) RecordPublishRetry(ctx context.Context, pattern string) {
	om.publishRetries.Add(ctx, 1,
		metric.WithAttributes(
			PatternAttr(pattern),
		),
	)
}

func (om *OTELMetrics) RecordCommand(ctx context.Context, command string, duration time.Duration, err error) {
	om.commandDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			CommandAttr(command),
			StatusAttr(status(err)),
		),
	)
}

func (om *OTELMetrics) Handler() http.Handler {
	return promhttp.Handler()
}

func (om *OTELMetrics) Shutdown(ctx context.Context) error {
	if err := om.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}

	return nil
}

func status(err error) string {
	if err != nil {
		return statusError
	}

	return statusSuccess
}
