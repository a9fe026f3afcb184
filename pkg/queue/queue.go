package queue

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const namespaceLength = 16

// Queue publishes and consumes JSON messages by routing pattern over a single RabbitMQ connection.
//
// The connection and the two channels it carries, one publishing and one consuming, are opened
// lazily on first use and shared by every pattern. A Queue is safe for concurrent use.
type Queue struct {
	url        string
	amqpConfig amqp.Config
	dial       dialer

	exchange        string
	exchangeOptions ExchangeOptions
	namespace       string
	queueOptions    QueueOptions
	prefetch        Prefetch

	publishingTimeout time.Duration

	conns      *memo[connection]
	channels   *memo[*channelWrapper]
	waitQueues *memo[string]

	logger  Logger
	metrics Metrics
	sink    *errorSink

	// ctx is handed to message handlers and is canceled by Close.
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// New creates a Queue for the broker at url. No connection is made until the first operation
// or an explicit Connect.
//
// Without WithNamespace a random namespace is generated and pattern queues are ephemeral:
// not durable and deleted once their last consumer goes away. With a namespace they are durable
// and every Queue sharing it competes for the same messages.
func New(url string, opts ...Option) *Queue {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	namespace := options.namespace
	stable := namespace != ""

	if !stable {
		namespace = generateNamespace()
	}

	queueOpts := QueueOptions{
		Durable:    stable,
		AutoDelete: !stable,
		Expires:    defaultQueueExpiry,
	}
	if options.queueOptions != nil {
		queueOpts = *options.queueOptions
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Queue{
		url:               url,
		amqpConfig:        options.amqpConfig,
		dial:              options.dial,
		exchange:          options.exchange,
		exchangeOptions:   options.exchangeOptions,
		namespace:         namespace,
		queueOptions:      queueOpts,
		prefetch:          options.prefetch,
		publishingTimeout: options.publishingTimeout,
		conns:             newMemo[connection](),
		channels:          newMemo[*channelWrapper](),
		waitQueues:        newMemo[string](),
		logger:            options.logger,
		metrics:           options.metrics,
		sink:              newErrorSink(options.errHandler, options.logger),
		ctx:               ctx,
		cancel:            cancel,
	}
}

// NewFromConfig creates a Queue for the broker described by cfg.
func NewFromConfig(cfg Config, opts ...Option) *Queue {
	return New(cfg.URL(), opts...)
}

// Namespace returns the prefix of every pattern queue this Queue consumes from.
func (q *Queue) Namespace() string {
	return q.namespace
}

// Connect establishes the broker connection ahead of the first operation.
func (q *Queue) Connect(ctx context.Context) error {
	if err := q.checkOpen(); err != nil {
		return err
	}

	_, err := q.connection(ctx)

	return err
}

// IsConnected returns true if the broker connection is established and open.
func (q *Queue) IsConnected() bool {
	if q.closed.Load() {
		return false
	}

	conn, ok := q.conns.peek(connectionKey)

	return ok && !conn.IsClosed()
}

// Close closes the broker connection together with its channels and stops every consumer.
// Closing a Queue that never connected succeeds, closing it twice returns ErrClosed.
func (q *Queue) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	q.cancel()

	conn, ok := q.conns.peek(connectionKey)
	if !ok {
		return nil
	}

	q.conns.forget(connectionKey, conn)

	if conn.IsClosed() {
		return nil
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	q.logger.Info().Str("namespace", q.namespace).Msg("connection closed")

	return nil
}

func (q *Queue) checkOpen() error {
	if q.closed.Load() {
		return ErrClosed
	}

	return nil
}

func generateNamespace() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:namespaceLength]
}
