package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/internal/ports"
	"github.com/architeacher/svc-pattern-queue/internal/shared/backoff"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

// errPublishAbandoned marks a failed attempt whose caller is no longer waiting for it.
var errPublishAbandoned = errors.New("publish abandoned")

type (
	PublisherService interface {
		Publish(ctx context.Context, event domain.Event) (*domain.PublishResult, error)
	}

	publisherService struct {
		pusher          ports.Pusher
		circuitBreaker  *gobreaker.CircuitBreaker
		backoffStrategy backoff.Strategy
		maxRetries      int
		logger          *infrastructure.Logger
		metrics         infrastructure.Metrics
	}
)

func NewPublisherService(
	pusher ports.Pusher,
	cfg config.PublisherConfig,
	backoffStrategy backoff.Strategy,
	logger *infrastructure.Logger,
	metrics infrastructure.Metrics,
) PublisherService {
	logger = logger.Component("publisher")

	cbSettings := gobreaker.Settings{
		Name:        "queue-publisher",
		MaxRequests: cfg.CircuitBreaker.MaxRequests,
		Interval:    cfg.CircuitBreaker.Interval,
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("name", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err)
		},
	}

	return &publisherService{
		pusher:          pusher,
		circuitBreaker:  gobreaker.NewCircuitBreaker(cbSettings),
		backoffStrategy: backoffStrategy,
		maxRetries:      max(cfg.MaxRetries, 0),
		logger:          logger,
		metrics:         metrics,
	}
}

func (s *publisherService) Publish(ctx context.Context, event domain.Event) (*domain.PublishResult, error) {
	var opts []queue.PushOption
	if event.Delay > 0 {
		opts = append(opts, queue.WithDelay(event.Delay))
	}

	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.RecordPublishRetry(ctx, event.Pattern)

			if err := backoff.Wait(ctx, s.backoffStrategy, attempt-1); err != nil {
				return nil, fmt.Errorf("publish to %s interrupted: %w", event.Pattern, err)
			}
		}

		_, err := s.circuitBreaker.Execute(func() (any, error) {
			err := s.pusher.Push(ctx, event.Pattern, event.Payload, opts...)
			if err != nil && ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errPublishAbandoned, err)
			}

			return nil, err
		})
		if err == nil {
			s.logger.Debug().
				Str("pattern", event.Pattern).
				Dur("delay", event.Delay).
				Int("attempts", attempt+1).
				Msg("event published")

			return &domain.PublishResult{
				Pattern:  event.Pattern,
				Delayed:  event.Delay > 0,
				Attempts: attempt + 1,
			}, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrCircuitBreakerOpen, err)
		}

		if isPermanent(err) {
			return nil, err
		}

		lastErr = err

		s.logger.Warn().
			Err(err).
			Str("pattern", event.Pattern).
			Int("attempt", attempt+1).
			Msg("failed to publish event")
	}

	return nil, &domain.MaxRetriesExceededError{
		Pattern:    event.Pattern,
		RetryCount: s.maxRetries,
		MaxRetries: s.maxRetries,
		Cause:      lastErr,
	}
}

// isPermanent reports errors that another attempt cannot fix. A publishing timeout is not one of
// them, only the caller's own context ending is.
func isPermanent(err error) bool {
	return errors.Is(err, queue.ErrClosed) ||
		errors.Is(err, queue.ErrEmptyPattern) ||
		errors.Is(err, queue.ErrInvalidDelay) ||
		errors.Is(err, errPublishAbandoned)
}
