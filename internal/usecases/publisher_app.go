package usecases

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/service"
	"github.com/architeacher/svc-pattern-queue/internal/shared/decorator"
	"github.com/architeacher/svc-pattern-queue/internal/usecases/commands"
)

type (
	PublisherApplication struct {
		Commands PublisherCommands
	}

	PublisherCommands struct {
		PublishEventHandler commands.PublishEventHandler
	}
)

func NewPublisherApplication(
	publisherService service.PublisherService,
	logger *infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) *PublisherApplication {
	return &PublisherApplication{
		Commands: PublisherCommands{
			PublishEventHandler: commands.NewPublishEventHandler(
				publisherService,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
	}
}
