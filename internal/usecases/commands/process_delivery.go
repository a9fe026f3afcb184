package commands

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/service"
	"github.com/architeacher/svc-pattern-queue/internal/shared/decorator"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	ProcessDeliveryCommand struct {
		Pattern  string
		Message  queue.Message
		Delivery queue.Delivery
	}

	ProcessDeliveryHandler decorator.CommandHandler[ProcessDeliveryCommand, *domain.ProcessDeliveryResult]

	processDeliveryHandler struct {
		subscriberService service.SubscriberService
	}
)

func NewProcessDeliveryHandler(
	subscriberService service.SubscriberService,
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient decorator.MetricsClient,
) ProcessDeliveryHandler {
	return decorator.ApplyCommandDecorators[ProcessDeliveryCommand, *domain.ProcessDeliveryResult](
		processDeliveryHandler{
			subscriberService: subscriberService,
		},
		logger,
		tracerProvider,
		metricsClient,
	)
}

func (h processDeliveryHandler) Handle(ctx context.Context, cmd ProcessDeliveryCommand) (*domain.ProcessDeliveryResult, error) {
	return h.subscriberService.ProcessDelivery(ctx, cmd.Pattern, cmd.Message, cmd.Delivery)
}
