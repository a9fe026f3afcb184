package queue

import (
	"context"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/usecases"
	"github.com/architeacher/svc-pattern-queue/internal/usecases/commands"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

// DeliveryWorker turns queue deliveries into subscriber commands and settles them.
type DeliveryWorker struct {
	app    *usecases.SubscriberApplication
	logger *infrastructure.Logger
}

func NewDeliveryWorker(
	app *usecases.SubscriberApplication,
	logger *infrastructure.Logger,
) *DeliveryWorker {
	return &DeliveryWorker{
		app:    app,
		logger: logger.Component("delivery_worker"),
	}
}

// Handler returns the queue handler for one pulled pattern.
func (w *DeliveryWorker) Handler(pattern string) queue.Handler {
	return queue.DetailedHandlerFunc(func(ctx context.Context, msg queue.Message, delivery queue.Delivery, ack queue.AckFunc) {
		w.process(ctx, pattern, msg, delivery, ack)
	})
}

func (w *DeliveryWorker) process(ctx context.Context, pattern string, msg queue.Message, delivery queue.Delivery, ack queue.AckFunc) {
	result, err := w.app.Commands.ProcessDeliveryHandler.Handle(ctx, commands.ProcessDeliveryCommand{
		Pattern:  pattern,
		Message:  msg,
		Delivery: delivery,
	})
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("pattern", pattern).
			Str("message_id", delivery.MessageID).
			Msg("failed to process delivery")

		ack(err)

		return
	}

	if result.Requeue {
		ack(domain.ErrRequeueRequested)

		return
	}

	ack(nil)
}
