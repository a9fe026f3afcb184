package queue

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishRole = "publish"
	consumeRole = "consume"
)

// amqpChannel is used mainly to be able to generate mocks for the AMQP behavior.
type amqpChannel interface {
	io.Closer

	Qos(prefetchCount, prefetchSize int, global bool) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
}

// channelWrapper is a wrapper around amqp091-go.Channel dedicated to a single role.
// amqp091-go matches every synchronous reply to the oldest pending request of the channel,
// so mutex keeps at most one request in flight at a time.
type channelWrapper struct {
	role     string
	amqpChan amqpChannel
	logger   Logger
	mutex    sync.Mutex
	closed   atomic.Bool
}

func newChannelWrapper(role string, amqpChan amqpChannel, logger Logger) *channelWrapper {
	return &channelWrapper{
		role:     role,
		amqpChan: amqpChan,
		logger:   logger,
	}
}

// Close is a wrapper around amqp091-go.Channel.Close method, which closes a channel.
func (ch *channelWrapper) Close() error {
	if !ch.closed.CompareAndSwap(false, true) {
		return amqp.ErrClosed
	}

	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	return ch.amqpChan.Close()
}

func (ch *channelWrapper) isClosed() bool {
	return ch.closed.Load()
}

// applyPrefetch limits unacknowledged deliveries per consumer (local) and per channel (global).
func (ch *channelWrapper) applyPrefetch(p Prefetch) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if p.Local > 0 {
		if err := ch.amqpChan.Qos(p.Local, 0, false); err != nil {
			return fmt.Errorf("failed to apply consumer prefetch on %s channel: %w", ch.role, err)
		}
	}

	if p.Global > 0 {
		if err := ch.amqpChan.Qos(p.Global, 0, true); err != nil {
			return fmt.Errorf("failed to apply channel prefetch on %s channel: %w", ch.role, err)
		}
	}

	return nil
}

func (ch *channelWrapper) exchangeDeclare(name string, opts ExchangeOptions) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if err := ch.amqpChan.ExchangeDeclare(name, exchangeKind, opts.Durable, opts.AutoDelete, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", name, err)
	}

	return nil
}

func (ch *channelWrapper) queueDeclare(name string, durable, autoDelete bool, args amqp.Table) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if _, err := ch.amqpChan.QueueDeclare(name, durable, autoDelete, false, false, args); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", name, err)
	}

	return nil
}

func (ch *channelWrapper) queueBind(name, key, exchange string) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if err := ch.amqpChan.QueueBind(name, key, exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s to %s: %w", name, exchange, err)
	}

	return nil
}

func (ch *channelWrapper) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	if err := ch.amqpChan.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", exchange, err)
	}

	return nil
}

func (ch *channelWrapper) consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	ch.mutex.Lock()
	defer ch.mutex.Unlock()

	deliveries, err := ch.amqpChan.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to consume from %s: %w", queue, err)
	}

	return deliveries, nil
}

func (q *Queue) publishChannel(ctx context.Context) (*channelWrapper, error) {
	return q.channels.get(ctx, publishRole, q.channelOpener(publishRole))
}

func (q *Queue) consumeChannel(ctx context.Context) (*channelWrapper, error) {
	return q.channels.get(ctx, consumeRole, q.channelOpener(consumeRole))
}

// channelOpener opens a channel for role over the shared connection. The channel is
// handed out only after its prefetch limits are in place.
func (q *Queue) channelOpener(role string) func(ctx context.Context) (*channelWrapper, error) {
	return func(ctx context.Context) (*channelWrapper, error) {
		conn, err := q.connection(ctx)
		if err != nil {
			return nil, err
		}

		amqpCh, err := conn.openChannel()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s channel: %w", role, err)
		}

		ch := newChannelWrapper(role, amqpCh, q.logger)
		closes := amqpCh.NotifyClose(make(chan *amqp.Error, 1))

		if err := ch.applyPrefetch(q.prefetch); err != nil {
			_ = ch.Close()

			return nil, err
		}

		go q.watchChannel(ch, closes)

		q.logger.Debug().Str("role", role).Msg("channel opened")

		return ch, nil
	}
}

// watchChannel reports channel-level exceptions, e.g. a redeclare with mismatching arguments.
func (q *Queue) watchChannel(ch *channelWrapper, closes <-chan *amqp.Error) {
	amqpErr, ok := <-closes

	ch.closed.Store(true)
	q.channels.forget(ch.role, ch)

	if !ok || amqpErr == nil {
		return
	}

	q.sink.emit(fmt.Errorf("%s channel closed unexpectedly: %w", ch.role, amqpErr))
}
