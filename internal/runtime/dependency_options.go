package runtime

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.opentelemetry.io/otel"

	"github.com/architeacher/svc-pattern-queue/internal/adapters"
	queueAdapter "github.com/architeacher/svc-pattern-queue/internal/adapters/queue"
	"github.com/architeacher/svc-pattern-queue/internal/adapters/repos"
	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/service"
	"github.com/architeacher/svc-pattern-queue/internal/shared/backoff"
	"github.com/architeacher/svc-pattern-queue/internal/usecases"
)

type (
	DependencyOption func(*Dependencies) error
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithSecretStorage(),
		WithSecretStorageRepo(),
		WithConfigLoader(ctx),
		WithMetrics(ctx),
		WithTracing(ctx),
		WithQueue(ctx),
	}
}

// WithSecretStorage initializes the Vault client using ENV config.
func WithSecretStorage() DependencyOption {
	return func(d *Dependencies) error {
		cfg := d.cfg.SecretStorage

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = cfg.Address
		vaultConfig.Timeout = cfg.Timeout

		if cfg.TLSSkipVerify {
			tlsConfig := &api.TLSConfig{
				Insecure: true,
			}
			if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
				return fmt.Errorf("failed to configure TLS: %w", err)
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("failed to create Vault client: %w", err)
		}

		// Dev mode vault runs without namespaces.
		if cfg.Namespace != "" {
			client.SetNamespace(cfg.Namespace)
		}

		d.Infra.SecretStorageClient = client

		return nil
	}
}

func WithSecretStorageRepo() DependencyOption {
	return func(d *Dependencies) error {
		d.Repos.SecretStorageRepo = repos.NewVaultRepository(d.Infra.SecretStorageClient)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		d.configLoader = config.NewLoader(d.cfg, d.Repos.SecretStorageRepo, d.secretVersion)

		if !d.cfg.SecretStorage.Enabled {
			d.logger.Info().Msg("secret storage is disabled, skipping vault configuration loading")

			return nil
		}

		version, err := d.configLoader.Load(ctx, d.Repos.SecretStorageRepo, d.cfg)
		if err != nil {
			return fmt.Errorf("unable to load service configuration: %w", err)
		}

		d.secretVersion = version

		return nil
	}
}

func WithMetrics(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		metrics, err := infrastructure.NewMetrics(ctx, *d.cfg, d.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}

		d.Infra.Metrics = metrics

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.Telemetry.Traces.Enabled {
			d.tracerShutdownFunc = func(_ context.Context) error {
				return nil
			}

			return nil
		}

		tracerShutdownFunc, err := infrastructure.InitGlobalTracer(ctx, d.cfg.Telemetry, d.cfg.AppConfig)
		if err != nil {
			d.logger.Error().Err(err).Msg("failed to initialize global tracer")

			return err
		}

		d.tracerShutdownFunc = tracerShutdownFunc

		return nil
	}
}

// WithQueue creates the queue client and opens the broker connection eagerly so that
// misconfiguration fails the start instead of the first publish.
func WithQueue(ctx context.Context) DependencyOption {
	return func(d *Dependencies) error {
		queueClient := infrastructure.NewQueue(d.cfg.Queue, d.logger, d.Infra.Metrics, d.reportQueueError)

		connectCtx, cancel := context.WithTimeout(ctx, d.cfg.Queue.ConnectTimeout)
		defer cancel()

		if err := queueClient.Connect(connectCtx); err != nil {
			return fmt.Errorf("failed to connect to queue: %w", err)
		}

		d.logger.Info().
			Str("namespace", queueClient.Namespace()).
			Str("exchange", d.cfg.Queue.ExchangeName).
			Msg("queue connection established")

		d.Infra.QueueClient = queueClient

		return nil
	}
}

func WithPublisher() DependencyOption {
	return func(d *Dependencies) error {
		publisherService := service.NewPublisherService(
			d.Infra.QueueClient,
			d.cfg.Publisher,
			backoff.NewExponentialStrategy(d.cfg.Backoff),
			d.logger,
			d.Infra.Metrics,
		)

		d.Apps.Publisher = usecases.NewPublisherApplication(
			publisherService,
			d.logger,
			otel.GetTracerProvider(),
			d.Infra.Metrics,
		)

		return nil
	}
}

func WithSubscriber() DependencyOption {
	return func(d *Dependencies) error {
		d.Apps.Subscriber = usecases.NewSubscriberApplication(
			service.NewSubscriberService(d.logger),
			d.logger,
			otel.GetTracerProvider(),
			d.Infra.Metrics,
		)

		d.Workers.DeliveryWorker = queueAdapter.NewDeliveryWorker(
			d.Apps.Subscriber,
			d.logger,
		)

		return nil
	}
}

func WithOpsServer() DependencyOption {
	return func(d *Dependencies) error {
		if !d.cfg.OpsServer.Enabled {
			d.logger.Info().Msg("ops server is disabled")

			return nil
		}

		d.Infra.OpsServer = initOpsServer(
			d.cfg,
			d.logger,
			d.Infra.Metrics,
			adapters.NewHealthChecker(d.Infra.QueueClient),
		)

		return nil
	}
}
