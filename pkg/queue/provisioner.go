package queue

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ensureWaitQueue provisions the detour topology for (pattern, delay) once per Queue and returns
// the exchange delayed messages must be published to. Expired messages are dead-lettered back to
// the main exchange with their original routing key.
func (q *Queue) ensureWaitQueue(ctx context.Context, ch *channelWrapper, pattern string, delay time.Duration) (string, error) {
	waitQueue := WaitQueueName(pattern, delay)

	_, err := q.waitQueues.get(ctx, waitQueue, func(ctx context.Context) (string, error) {
		err := q.provisionWaitQueue(ch, waitQueue, pattern, delay)
		q.metrics.RecordProvision(ctx, waitQueue, err)

		if err != nil {
			return "", err
		}

		return waitQueue, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to provision wait queue %s: %w", waitQueue, err)
	}

	return WaitExchangeName(delay), nil
}

func (q *Queue) provisionWaitQueue(ch *channelWrapper, waitQueue, pattern string, delay time.Duration) error {
	waitExchange := WaitExchangeName(delay)

	if err := ch.exchangeDeclare(waitExchange, ExchangeOptions{Durable: true, AutoDelete: false}); err != nil {
		return err
	}

	if err := ch.queueDeclare(waitQueue, true, false, amqp.Table{
		argMessageTTL:         millis(delay),
		argDeadLetterExchange: q.exchange,
	}); err != nil {
		return err
	}

	if err := ch.queueBind(waitQueue, pattern, waitExchange); err != nil {
		return err
	}

	q.logger.Debug().
		Str("wait_queue", waitQueue).
		Str("wait_exchange", waitExchange).
		Msg("wait queue provisioned")

	return nil
}
