package usecases

import (
	otelTrace "go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/service"
	"github.com/architeacher/svc-pattern-queue/internal/shared/decorator"
	"github.com/architeacher/svc-pattern-queue/internal/usecases/commands"
)

type (
	SubscriberApplication struct {
		Commands SubscriberCommands
	}

	SubscriberCommands struct {
		ProcessDeliveryHandler commands.ProcessDeliveryHandler
	}
)

func NewSubscriberApplication(
	subscriberService service.SubscriberService,
	logger *infrastructure.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient decorator.MetricsClient,
) *SubscriberApplication {
	return &SubscriberApplication{
		Commands: SubscriberCommands{
			ProcessDeliveryHandler: commands.NewProcessDeliveryHandler(
				subscriberService,
				logger,
				tracerProvider,
				metricsClient,
			),
		},
	}
}
