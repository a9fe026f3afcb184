package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Pull declares the queue of pattern within the namespace, binds it to the main exchange and
// starts consuming it. It returns once the consumer is registered; handler then runs in its own
// goroutine for every delivery until the queue is closed.
func (q *Queue) Pull(ctx context.Context, pattern string, handler Handler, opts ...PullOption) error {
	if err := q.checkOpen(); err != nil {
		return err
	}

	if pattern == "" {
		return ErrEmptyPattern
	}

	if handler == nil {
		return ErrNilHandler
	}

	options := pullOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	queueOpts := q.queueOptions
	if options.queueOptions != nil {
		queueOpts = *options.queueOptions
	}

	ch, err := q.consumeChannel(ctx)
	if err != nil {
		return err
	}

	name := QueueName(q.namespace, pattern)

	if err := q.declareConsumerQueue(ch, name, pattern, queueOpts); err != nil {
		return err
	}

	deliveries, err := ch.consume(name, options.consumerTag)
	if err != nil {
		return err
	}

	q.logger.Info().
		Str("pattern", pattern).
		Str("queue", name).
		Msg("consumer started")

	go q.dispatch(pattern, deliveries, handler)

	return nil
}

// PullAsync starts consuming in the background. Setup failures are reported to the error handler.
func (q *Queue) PullAsync(ctx context.Context, pattern string, handler Handler, opts ...PullOption) {
	ctx = context.WithoutCancel(ctx)

	go func() {
		if err := q.Pull(ctx, pattern, handler, opts...); err != nil {
			q.sink.emit(fmt.Errorf("pull from %s: %w", pattern, err))
		}
	}()
}

func (q *Queue) declareConsumerQueue(ch *channelWrapper, name, pattern string, opts QueueOptions) error {
	expires := opts.Expires
	if expires <= 0 {
		expires = defaultQueueExpiry
	}

	if err := ch.exchangeDeclare(q.exchange, q.exchangeOptions); err != nil {
		return err
	}

	if err := ch.queueDeclare(name, opts.Durable, opts.AutoDelete, amqp.Table{
		argExpires: millis(expires),
	}); err != nil {
		return err
	}

	return ch.queueBind(name, pattern, q.exchange)
}

// dispatch hands every delivery to its own goroutine so a slow or failing handler never stalls
// the delivery loop of the client library.
func (q *Queue) dispatch(pattern string, deliveries <-chan amqp.Delivery, handler Handler) {
	for d := range deliveries {
		go q.deliver(pattern, d, handler)
	}

	q.logger.Debug().Str("pattern", pattern).Msg("delivery stream ended")
}

func (q *Queue) deliver(pattern string, d amqp.Delivery, handler Handler) {
	started := time.Now()

	msg, err := decodeMessage(d.Body)
	if err != nil {
		q.reject(pattern, d, started, err)

		return
	}

	ack := q.newAck(pattern, d, started)

	defer func() {
		if r := recover(); r != nil {
			ack(fmt.Errorf("handler panicked: %v", r))
		}
	}()

	handler.Handle(q.ctx, msg, newDelivery(d), ack)
}

// reject drops a message that can never be decoded, redelivering it would only fail again.
func (q *Queue) reject(pattern string, d delivery, started time.Time, cause error) {
	q.metrics.RecordDelivery(q.ctx, pattern, OutcomeReject, time.Since(started))

	if err := d.Nack(false, false); err != nil {
		q.logger.Error().Err(err).Str("pattern", pattern).Msg("failed to reject message")
	}

	q.sink.emit(fmt.Errorf("pattern %s: %w", pattern, cause))
}

// newAck binds the outcome of a handler to the delivery. A nil error acknowledges the message,
// any other error requeues it.
func (q *Queue) newAck(pattern string, d delivery, started time.Time) AckFunc {
	var once sync.Once

	return func(handlerErr error) {
		once.Do(func() {
			outcome := OutcomeAck

			var err error
			if handlerErr == nil {
				err = d.Ack(false)
			} else {
				outcome = OutcomeRequeue
				err = d.Nack(false, true)

				q.logger.Warn().Err(handlerErr).Str("pattern", pattern).Msg("message requeued")
			}

			q.metrics.RecordDelivery(q.ctx, pattern, outcome, time.Since(started))

			if err != nil {
				q.sink.emit(fmt.Errorf("failed to %s message on %s: %w", outcome, pattern, err))
			}
		})
	}
}
