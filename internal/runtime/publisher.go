package runtime

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/usecases/commands"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

const maxPayloadLineSize = 1 << 20

type (
	PublisherCtx struct {
		deps *Dependencies

		input io.Reader

		shutdownChannel chan os.Signal
		inputDone       chan error

		backgroundActorCtx      context.Context
		backgroundActorStopFunc context.CancelFunc
	}

	publishFunc func(ctx context.Context, event domain.Event) error

	publishStats struct {
		Published int
		Failed    int
		Skipped   int
	}
)

func NewPublisher(opt ...PublisherOption) *PublisherCtx {
	pCtx := &PublisherCtx{
		input:           os.Stdin,
		shutdownChannel: make(chan os.Signal, 1),
		inputDone:       make(chan error, 1),
	}

	for i := range opt {
		opt[i](pCtx)
	}

	return pCtx
}

func (c *PublisherCtx) Run() {
	c.build()
	c.start()
	c.monitorConfigChanges()
	c.shutdownHook()
	c.shutdown()
}

func (c *PublisherCtx) build() {
	c.backgroundActorCtx, c.backgroundActorStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.backgroundActorCtx, WithPublisher())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	c.deps = deps
}

func (c *PublisherCtx) start() {
	cfg := c.deps.cfg.Publisher

	c.deps.logger.Info().
		Str("pattern", cfg.Pattern).
		Dur("delay", cfg.Delay).
		Msg("starting publisher, reading payloads from input")

	handler := c.deps.Apps.Publisher.Commands.PublishEventHandler

	publish := func(ctx context.Context, event domain.Event) error {
		_, err := handler.Handle(ctx, commands.PublishEventCommand{Event: event})

		return err
	}

	go func() {
		stats, err := publishLines(c.backgroundActorCtx, c.input, cfg.Pattern, cfg.Delay, publish, c.deps.logger)

		c.deps.logger.Info().
			Int("published", stats.Published).
			Int("failed", stats.Failed).
			Int("skipped", stats.Skipped).
			Msg("publisher input finished")

		c.inputDone <- err
	}()
}

func (c *PublisherCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *PublisherCtx) monitorConfigChanges() {
	reloadErrors := c.deps.configLoader.WatchConfigSignals(c.backgroundActorCtx)

	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.logger.Error().Err(err).Msg("failed to reload config")
				continue
			}

			c.deps.logger.Info().Msg("config reloaded successfully")
		}

		c.deps.logger.Info().Msg("stopping config monitor")
	}()
}

func (c *PublisherCtx) shutdown() {
	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.backgroundActorCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)

		c.deps.logger.Info().Msg("received shutdown signal")
	case err := <-c.inputDone:
		if err != nil {
			c.deps.logger.Error().Err(err).Msg("publisher stopped reading input")
		}
	case err := <-c.deps.queueErrors:
		c.deps.logger.Error().Err(err).Msg("queue failed")
	}

	// Cancel context that underlying processes would start cleanup
	c.backgroundActorStopFunc()

	c.cleanup()

	c.deps.logger.Info().Msg("publisher stopped")
}

func (c *PublisherCtx) cleanup() {
	c.deps.logger.Info().Msg("cleaning up resources...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.OpsServer.ShutdownTimeout)
	defer cancel()

	if c.deps.Infra.QueueClient != nil {
		if err := c.deps.Infra.QueueClient.Close(); err != nil {
			c.deps.logger.Error().Err(err).Msg("failed to close queue")
		}
	}

	if err := c.deps.Infra.Metrics.Shutdown(shutdownCtx); err != nil {
		c.deps.logger.Error().Err(err).Msg("failed to shutdown metrics")
	}

	if err := c.deps.tracerShutdownFunc(shutdownCtx); err != nil {
		c.deps.logger.Error().Err(err).Msg("failed to shutdown tracer")
	}

	c.deps.logger.Info().Msg("cleanup completed")
}

// publishLines publishes every non-blank line of r as one event until r is exhausted.
// Lines which are not valid JSON are skipped. It stops early when ctx is done or the queue is closed.
func publishLines(
	ctx context.Context,
	r io.Reader,
	pattern string,
	delay time.Duration,
	publish publishFunc,
	logger *infrastructure.Logger,
) (publishStats, error) {
	var stats publishStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxPayloadLineSize)

	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		event, err := domain.NewEvent(pattern, line, delay)
		if err != nil {
			stats.Skipped++

			logger.Warn().Err(err).Int("line", lineNumber).Msg("skipping payload")

			continue
		}

		if err := publish(ctx, event); err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return stats, err
			}

			stats.Failed++

			logger.Error().Err(err).Int("line", lineNumber).Msg("failed to publish payload")

			continue
		}

		stats.Published++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read input: %w", err)
	}

	return stats, nil
}
