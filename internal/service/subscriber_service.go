package service

import (
	"context"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	SubscriberService interface {
		ProcessDelivery(ctx context.Context, pattern string, msg queue.Message, delivery queue.Delivery) (*domain.ProcessDeliveryResult, error)
	}

	subscriberService struct {
		logger *infrastructure.Logger
	}
)

func NewSubscriberService(logger *infrastructure.Logger) SubscriberService {
	return &subscriberService{
		logger: logger.Component("subscriber"),
	}
}

// ProcessDelivery logs the delivery. A payload flagged with "fail" is requeued once,
// its redelivery is acknowledged.
func (s *subscriberService) ProcessDelivery(
	_ context.Context,
	pattern string,
	msg queue.Message,
	delivery queue.Delivery,
) (*domain.ProcessDeliveryResult, error) {
	var flags domain.EventFlags
	if err := msg.Unmarshal(&flags); err != nil {
		// Scalars and arrays carry no flags.
		flags = domain.EventFlags{}
	}

	requeue := flags.Fail && !delivery.Redelivered

	s.logger.Info().
		Str("pattern", pattern).
		Str("routing_key", delivery.RoutingKey).
		Str("exchange", delivery.Exchange).
		Str("message_id", delivery.MessageID).
		Str("consumer_tag", delivery.ConsumerTag).
		Uint64("delivery_tag", delivery.DeliveryTag).
		Bool("redelivered", delivery.Redelivered).
		Bool("requeue", requeue).
		RawJSON("payload", msg.Raw()).
		Msg("message received")

	return &domain.ProcessDeliveryResult{Requeue: requeue}, nil
}
