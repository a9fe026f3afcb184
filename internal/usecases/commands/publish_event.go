package commands

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/service"
	"github.com/architeacher/svc-pattern-queue/internal/shared/decorator"
)

type (
	PublishEventCommand struct {
		Event domain.Event
	}

	PublishEventHandler decorator.CommandHandler[PublishEventCommand, *domain.PublishResult]

	publishEventHandler struct {
		publisherService service.PublisherService
	}
)

func NewPublishEventHandler(
	publisherService service.PublisherService,
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient decorator.MetricsClient,
) PublishEventHandler {
	return decorator.ApplyCommandDecorators[PublishEventCommand, *domain.PublishResult](
		publishEventHandler{
			publisherService: publisherService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h publishEventHandler) Handle(ctx context.Context, cmd PublishEventCommand) (*domain.PublishResult, error) {
	return h.publisherService.Publish(ctx, cmd.Event)
}
