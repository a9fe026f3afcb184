package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	mockPusher struct {
		mock.Mock
	}

	retryCountingMetrics struct {
		infrastructure.NoOpMetrics
		retries atomic.Int32
	}

	fixedBackoff time.Duration
)

// Push records the number of push options rather than the option funcs themselves.
func (m *mockPusher) Push(ctx context.Context, pattern string, payload any, opts ...queue.PushOption) error {
	args := m.Called(ctx, pattern, payload, len(opts))

	return args.Error(0)
}

func (m *retryCountingMetrics) RecordPublishRetry(_ context.Context, _ string) {
	m.retries.Add(1)
}

func (b fixedBackoff) Backoff(int) time.Duration {
	return time.Duration(b)
}
