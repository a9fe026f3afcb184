package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/hashicorp/vault/api"

	httpAdapter "github.com/architeacher/svc-pattern-queue/internal/adapters/http"
	queueAdapter "github.com/architeacher/svc-pattern-queue/internal/adapters/queue"
	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/ports"
	"github.com/architeacher/svc-pattern-queue/internal/usecases"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	Applications struct {
		Publisher  *usecases.PublisherApplication
		Subscriber *usecases.SubscriberApplication
	}

	ApplicationWorkers struct {
		DeliveryWorker *queueAdapter.DeliveryWorker
	}

	TracerShutdownFunc func(ctx context.Context) error

	InfrastructureDeps struct {
		OpsServer           *http.Server
		SecretStorageClient *api.Client
		QueueClient         *queue.Queue
		Metrics             infrastructure.Metrics
	}

	Repos struct {
		SecretStorageRepo ports.SecretsRepository
	}

	Dependencies struct {
		Apps    Applications
		Workers ApplicationWorkers

		cfg          *config.ServiceConfig
		configLoader *config.Loader

		logger *infrastructure.Logger

		Infra InfrastructureDeps
		Repos Repos

		// queueErrors receives the first unrecoverable error reported by the queue.
		queueErrors chan error

		tracerShutdownFunc TracerShutdownFunc
		secretVersion      uint
	}
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*Dependencies, error) {
	cfg, err := config.Init()
	if err != nil {
		return nil, fmt.Errorf("unable to load service configuration: %w", err)
	}

	appLogger := infrastructure.New(cfg.Logging)

	appLogger.Info().Msg("initializing dependencies...")

	deps := &Dependencies{
		cfg:         cfg,
		logger:      appLogger,
		queueErrors: make(chan error, 1),
	}

	// Start with default options and append any additional options.
	options := append(defaultOptions(ctx), opts...)

	for _, opt := range options {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	deps.logger.Info().Msg("dependencies initialized successfully")

	return deps, nil
}

// reportQueueError forwards the queue's first unrecoverable error without blocking the queue.
// Undecodable messages are rejected by the queue and leave it usable.
func (d *Dependencies) reportQueueError(err error) {
	if errors.Is(err, queue.ErrDecode) {
		return
	}

	select {
	case d.queueErrors <- err:
	default:
	}
}

func initOpsServer(
	cfg *config.ServiceConfig,
	logger *infrastructure.Logger,
	metrics infrastructure.Metrics,
	healthChecker ports.HealthChecker,
) *http.Server {
	logger.Info().Msg("creating ops server...")

	router := httpAdapter.NewOpsRouter(
		cfg.Logging,
		httpAdapter.NewOpsHandler(healthChecker, logger),
		metrics.Handler(),
		logger,
	)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.OpsServer.Host, strconv.Itoa(cfg.OpsServer.Port)),
		Handler:      router,
		ReadTimeout:  cfg.OpsServer.ReadTimeout,
		WriteTimeout: cfg.OpsServer.WriteTimeout,
		IdleTimeout:  cfg.OpsServer.IdleTimeout,
	}

	logger.Info().Str("addr", server.Addr).Msg("ops server created")

	return server
}
