package ports

import (
	"context"

	"github.com/architeacher/svc-pattern-queue/pkg/queue"
)

type (
	Pusher interface {
		Push(ctx context.Context, pattern string, payload any, opts ...queue.PushOption) error
	}

	Puller interface {
		Pull(ctx context.Context, pattern string, handler queue.Handler, opts ...queue.PullOption) error
	}

	QueueStatus interface {
		IsConnected() bool
		Namespace() string
	}
)
