package infrastructure

import (
	"github.com/rs/zerolog"

	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	// QueueLogger adapts zerolog to the logging interface of the queue package.
	QueueLogger struct {
		logger zerolog.Logger
	}

	queueLogEvent struct {
		event *zerolog.Event
	}
)

func NewQueueLogger(logger *Logger) QueueLogger {
	return QueueLogger{
		logger: logger.With().Str("component", "queue").Logger(),
	}
}

func (l QueueLogger) Info() queue.LogEvent {
	return queueLogEvent{event: l.logger.Info()}
}

func (l QueueLogger) Warn() queue.LogEvent {
	return queueLogEvent{event: l.logger.Warn()}
}

func (l QueueLogger) Error() queue.LogEvent {
	return queueLogEvent{event: l.logger.Error()}
}

func (l QueueLogger) Debug() queue.LogEvent {
	return queueLogEvent{event: l.logger.Debug()}
}

// Msg sends the event. zerolog hands out nil events for disabled levels, those are no-ops.
func (e queueLogEvent) Msg(msg string) {
	e.event.Msg(msg)
}

func (e queueLogEvent) Err(err error) queue.LogEvent {
	return queueLogEvent{event: e.event.Err(err)}
}

func (e queueLogEvent) Str(key, value string) queue.LogEvent {
	return queueLogEvent{event: e.event.Str(key, value)}
}

// NewQueue builds a queue client from the service configuration.
func NewQueue(cfg config.QueueConfig, logger *Logger, metrics queue.Metrics, errHandler func(error)) *queue.Queue {
	stable := cfg.Namespace != ""

	return queue.NewFromConfig(
		queue.Config{
			Scheme:   cfg.Scheme,
			Username: cfg.Username,
			Password: cfg.Password,
			Host:     cfg.Host,
			Port:     cfg.Port,
			Vhost:    cfg.VirtualHost,
		},
		queue.WithLogger(NewQueueLogger(logger)),
		queue.WithMetrics(metrics),
		queue.WithErrorHandler(errHandler),
		queue.WithConnectionTimeout(cfg.ConnectTimeout),
		queue.WithHeartbeat(cfg.Heartbeat),
		queue.WithPrefetch(cfg.PrefetchGlobal, cfg.PrefetchLocal),
		queue.WithPublishingTimeout(cfg.PublishingTimeout),
		queue.WithExchange(cfg.ExchangeName),
		queue.WithExchangeOptions(queue.ExchangeOptions{Durable: cfg.ExchangeDurable, AutoDelete: !cfg.ExchangeDurable}),
		queue.WithNamespace(cfg.Namespace),
		queue.WithQueueOptions(queue.QueueOptions{
			Durable:    stable,
			AutoDelete: !stable,
			Expires:    cfg.QueueExpires,
		}),
	)
}
