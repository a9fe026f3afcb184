package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/architeacher/svc-pattern-queue/internal/ports"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

const defaultConnectionCheckInterval = 10 * time.Second

type SubscriberCtx struct {
	deps *Dependencies

	shutdownChannel chan os.Signal
	serverReady     chan struct{}
	serverErrors    chan error
	connectionLost  <-chan struct{}

	backgroundActorCtx      context.Context
	backgroundActorStopFunc context.CancelFunc
}

func NewSubscriber(opt ...SubscriberOption) *SubscriberCtx {
	sCtx := &SubscriberCtx{
		shutdownChannel: make(chan os.Signal, 1),
		serverErrors:    make(chan error, 1),
	}

	for i := range opt {
		opt[i](sCtx)
	}

	return sCtx
}

func (c *SubscriberCtx) Run() {
	c.build()
	c.start()
	c.monitorConfigChanges()
	c.shutdownHook()
	c.shutdown()
}

func (c *SubscriberCtx) build() {
	c.backgroundActorCtx, c.backgroundActorStopFunc = context.WithCancel(context.Background())

	deps, err := initializeDependencies(c.backgroundActorCtx, WithSubscriber(), WithOpsServer())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	c.deps = deps
}

func (c *SubscriberCtx) start() {
	cfg := c.deps.cfg.Subscriber

	for _, pattern := range cfg.Patterns {
		var opts []queue.PullOption
		if tag := consumerTag(cfg.ConsumerTag, pattern); tag != "" {
			opts = append(opts, queue.WithConsumerTag(tag))
		}

		err := c.deps.Infra.QueueClient.Pull(
			c.backgroundActorCtx,
			pattern,
			c.deps.Workers.DeliveryWorker.Handler(pattern),
			opts...,
		)
		if err != nil {
			c.deps.logger.Fatal().Err(err).Str("pattern", pattern).Msg("failed to start consumer")
		}
	}

	c.deps.logger.Info().
		Strs("patterns", cfg.Patterns).
		Str("namespace", c.deps.Infra.QueueClient.Namespace()).
		Msg("subscriber started")

	c.connectionLost = watchConnection(c.backgroundActorCtx, c.deps.Infra.QueueClient, c.deps.cfg.Queue.Heartbeat)

	c.startOpsServer()
}

func (c *SubscriberCtx) startOpsServer() {
	server := c.deps.Infra.OpsServer
	if server == nil {
		c.signalServerReady()

		return
	}

	go func() {
		c.deps.logger.Info().Str("addr", server.Addr).Msg("starting ops server")

		c.signalServerReady()

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.serverErrors <- fmt.Errorf("ops server failed: %w", err)
		}
	}()
}

func (c *SubscriberCtx) signalServerReady() {
	if c.serverReady != nil {
		close(c.serverReady)
	}
}

// WaitForServer blocks until the ops server goroutine has been started.
func (c *SubscriberCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
	}
}

func (c *SubscriberCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
}

func (c *SubscriberCtx) monitorConfigChanges() {
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

func (c *SubscriberCtx) shutdown() {
	// Waits for one of the following shutdown conditions to happen.
	select {
	case <-c.backgroundActorCtx.Done():
	case <-c.shutdownChannel:
		defer close(c.shutdownChannel)

		c.deps.logger.Info().Msg("received shutdown signal")
	case err := <-c.serverErrors:
		c.deps.logger.Error().Err(err).Msg("ops server stopped unexpectedly")
	case err := <-c.deps.queueErrors:
		c.deps.logger.Error().Err(err).Msg("queue failed")
	case <-c.connectionLost:
		c.deps.logger.Error().Msg("broker connection lost, consumers are gone")
	}

	// Cancel context that underlying processes would start cleanup
	c.backgroundActorStopFunc()

	c.cleanup()

	c.deps.logger.Info().Msg("subscriber stopped")
}

func (c *SubscriberCtx) cleanup() {
	c.deps.logger.Info().Msg("cleaning up resources...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.cfg.OpsServer.ShutdownTimeout)
	defer cancel()

	if c.deps.Infra.OpsServer != nil {
		if err := c.deps.Infra.OpsServer.Shutdown(shutdownCtx); err != nil {
			c.deps.logger.Error().Err(err).Msg("failed to shutdown ops server")
		}
	}

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

// consumerTag derives a per-pattern tag, the broker refuses duplicate tags on one channel.
func consumerTag(base, pattern string) string {
	if base == "" {
		return ""
	}

	return base + "-" + pattern
}

// watchConnection closes the returned channel once status reports the broker connection gone.
// Consumers are not restored after a connection drop, so the subscriber has to stop.
func watchConnection(ctx context.Context, status ports.QueueStatus, interval time.Duration) <-chan struct{} {
	lost := make(chan struct{})

	if interval <= 0 {
		interval = defaultConnectionCheckInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !status.IsConnected() {
					close(lost)

					return
				}
			}
		}
	}()

	return lost
}
