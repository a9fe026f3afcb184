package decorator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
)

const tracerName = "github.com/architeacher/svc-pattern-queue/usecases"

type (
	CommandHandler[C any, R any] interface {
		Handle(ctx context.Context, cmd C) (R, error)
	}

	MetricsClient interface {
		RecordCommand(ctx context.Context, command string, duration time.Duration, err error)
	}

	commandLoggingDecorator[C any, R any] struct {
		base   CommandHandler[C, R]
		logger *infrastructure.Logger
	}

	commandMetricsDecorator[C any, R any] struct {
		base   CommandHandler[C, R]
		client MetricsClient
	}

	commandTracingDecorator[C any, R any] struct {
		base   CommandHandler[C, R]
		tracer trace.Tracer
	}
)

// ApplyCommandDecorators wraps handler with logging, metrics and tracing, outermost first.
func ApplyCommandDecorators[C any, R any](
	handler CommandHandler[C, R],
	logger *infrastructure.Logger,
	tracerProvider trace.TracerProvider,
	metricsClient MetricsClient,
) CommandHandler[C, R] {
	return commandLoggingDecorator[C, R]{
		base: commandMetricsDecorator[C, R]{
			base: commandTracingDecorator[C, R]{
				base:   handler,
				tracer: tracerProvider.Tracer(tracerName),
			},
			client: metricsClient,
		},
		logger: logger,
	}
}

func (d commandLoggingDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	name := commandName(cmd)

	d.logger.Debug().Str("command", name).Msg("executing command")

	defer func() {
		if err != nil {
			d.logger.Error().Err(err).Str("command", name).Msg("failed to execute command")

			return
		}

		d.logger.Debug().Str("command", name).Msg("command executed successfully")
	}()

	return d.base.Handle(ctx, cmd)
}

func (d commandMetricsDecorator[C, R]) Handle(ctx context.Context, cmd C) (result R, err error) {
	start := time.Now()

	defer func() {
		d.client.RecordCommand(ctx, commandName(cmd), time.Since(start), err)
	}()

	return d.base.Handle(ctx, cmd)
}

func (d commandTracingDecorator[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	name := commandName(cmd)

	ctx, span := d.tracer.Start(ctx, name,
		trace.WithAttributes(attribute.String("command", name)),
	)
	defer span.End()

	result, err := d.base.Handle(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return result, err
}

func commandName(cmd any) string {
	name := fmt.Sprintf("%T", cmd)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		return name[idx+1:]
	}

	return name
}
