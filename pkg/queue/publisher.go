package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Push publishes payload as JSON under pattern and waits for the broker to accept it.
// With WithDelay the message travels through a wait queue first and reaches consumers of
// pattern once the delay has elapsed.
func (q *Queue) Push(ctx context.Context, pattern string, payload any, opts ...PushOption) error {
	options := pushOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	err := q.push(ctx, pattern, payload, options)
	q.metrics.RecordPush(ctx, pattern, options.delay > 0, err)

	return err
}

// PushAsync publishes in the background. Failures are reported to the error handler.
func (q *Queue) PushAsync(ctx context.Context, pattern string, payload any, opts ...PushOption) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		if err := q.Push(ctx, pattern, payload, opts...); err != nil {
			q.sink.emit(fmt.Errorf("push to %s: %w", pattern, err))
		}
	}()
}

func (q *Queue) push(ctx context.Context, pattern string, payload any, options pushOptions) error {
	if err := q.checkOpen(); err != nil {
		return err
	}

	if pattern == "" {
		return ErrEmptyPattern
	}

	if options.delay < 0 {
		return ErrInvalidDelay
	}

	body, err := encodePayload(payload)
	if err != nil {
		return err
	}

	ch, err := q.publishChannel(ctx)
	if err != nil {
		return err
	}

	exchange := q.exchange
	if options.delay > 0 {
		exchange, err = q.ensureWaitQueue(ctx, ch, pattern, options.delay)
		if err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, q.publishingTimeout)
	defer cancel()

	publishing := amqp.Publishing{
		ContentType:  contentTypeJSON,
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.publish(ctx, exchange, pattern, publishing); err != nil {
		return err
	}

	q.logger.Debug().
		Str("pattern", pattern).
		Str("exchange", exchange).
		Str("message_id", publishing.MessageId).
		Msg("message pushed")

	return nil
}
