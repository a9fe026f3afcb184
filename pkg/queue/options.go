package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishingTimeout = 3 * time.Second
	defaultHeartbeat  = 10 * time.Second
	defaultLocale     = "en_US"
)

type (
	// Prefetch limits the number of unacknowledged deliveries in flight.
	// Global applies to the whole channel, Local to each consumer. Zero disables a limit.
	Prefetch struct {
		Global int
		Local  int
	}

	// ExchangeOptions configure the declaration of the main exchange.
	ExchangeOptions struct {
		Durable    bool
		AutoDelete bool
	}

	// QueueOptions configure the declaration of pattern queues.
	// A zero Expires falls back to two days of idleness.
	QueueOptions struct {
		Durable    bool
		AutoDelete bool
		Expires    time.Duration
	}
)

type options struct {
	amqpConfig        amqp.Config
	logger            Logger
	metrics           Metrics
	errHandler        func(error)
	exchange          string
	exchangeOptions   ExchangeOptions
	namespace         string
	queueOptions      *QueueOptions
	prefetch          Prefetch
	publishingTimeout time.Duration
	dial              dialer
}

// Option configures a Queue created by New.
type Option func(*options)

func defaultOptions() options {
	return options{
		amqpConfig: amqp.Config{
			Heartbeat: defaultHeartbeat,
			Locale:    defaultLocale,
		},
		logger:   nopLogger{},
		metrics:  nopMetrics{},
		exchange: defaultExchange,
		exchangeOptions: ExchangeOptions{
			Durable:    true,
			AutoDelete: false,
		},
		publishingTimeout: publishingTimeout,
		dial:              dialAMQP,
	}
}

// WithLogger returns an Option which sets the logger used by the queue.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConnectionConfig returns an Option which replaces the amqp091 dial configuration.
// Options applied after it, such as WithHeartbeat, adjust the replaced configuration.
func WithConnectionConfig(cfg amqp.Config) Option {
	return func(o *options) {
		o.amqpConfig = cfg
	}
}

// WithConnectionTimeout returns an Option which sets the timeout used when establishing a connection.
func WithConnectionTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.amqpConfig.Dial = amqp.DefaultDial(timeout)
	}
}

// WithHeartbeat returns an Option which sets the connection heartbeat interval.
func WithHeartbeat(interval time.Duration) Option {
	return func(o *options) {
		o.amqpConfig.Heartbeat = interval
	}
}

// WithPrefetch returns an Option which sets the prefetch limits applied to every channel.
func WithPrefetch(global, local int) Option {
	return func(o *options) {
		o.prefetch = Prefetch{Global: global, Local: local}
	}
}

// WithExchange returns an Option which sets the name of the main exchange.
func WithExchange(name string) Option {
	return func(o *options) {
		if name != "" {
			o.exchange = name
		}
	}
}

// WithExchangeOptions returns an Option which sets how the main exchange is declared.
func WithExchangeOptions(opts ExchangeOptions) Option {
	return func(o *options) {
		o.exchangeOptions = opts
	}
}

// WithNamespace returns an Option which sets a stable namespace.
// Queues of a stable namespace are durable and shared by every instance using it.
func WithNamespace(namespace string) Option {
	return func(o *options) {
		o.namespace = namespace
	}
}

// WithQueueOptions returns an Option which overrides the namespace-derived queue defaults.
func WithQueueOptions(opts QueueOptions) Option {
	return func(o *options) {
		o.queueOptions = &opts
	}
}

// WithErrorHandler returns an Option which sets the receiver of errors that have no caller to
// report to: asynchronous connection or channel failures, PushAsync and PullAsync failures and
// undecodable deliveries. Only the first such error reaches the handler, all of them are logged.
func WithErrorHandler(handler func(error)) Option {
	return func(o *options) {
		o.errHandler = handler
	}
}

// WithMetrics returns an Option which sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithPublishingTimeout returns an Option which sets the timeout used when publishing a message.
func WithPublishingTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishingTimeout = d
		}
	}
}

func withDialer(d dialer) Option {
	return func(o *options) {
		o.dial = d
	}
}

type pushOptions struct {
	delay time.Duration
}

// PushOption configures a single Push.
type PushOption func(*pushOptions)

// WithDelay returns a PushOption which holds the message back for d before it is routed to
// consumers. Zero means immediate delivery.
func WithDelay(d time.Duration) PushOption {
	return func(o *pushOptions) {
		o.delay = d
	}
}

type pullOptions struct {
	queueOptions *QueueOptions
	consumerTag  string
}

// PullOption configures a single Pull.
type PullOption func(*pullOptions)

// WithPullQueueOptions returns a PullOption which overrides the queue options for this pattern.
func WithPullQueueOptions(opts QueueOptions) PullOption {
	return func(o *pullOptions) {
		o.queueOptions = &opts
	}
}

// WithConsumerTag returns a PullOption which sets the consumer tag. The broker generates one when empty.
func WithConsumerTag(tag string) PullOption {
	return func(o *pullOptions) {
		o.consumerTag = tag
	}
}
