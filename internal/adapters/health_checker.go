package adapters

import (
	"context"
	"time"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
	"github.com/architeacher/svc-pattern-queue/internal/ports"
)

// HealthChecker reports the broker connection state of a queue client.
type HealthChecker struct {
	queue     ports.QueueStatus
	startTime time.Time
}

func NewHealthChecker(queue ports.QueueStatus) ports.HealthChecker {
	return &HealthChecker{
		queue:     queue,
		startTime: time.Now(),
	}
}

// CheckHealth reports unhealthy while no broker connection is established.
func (h *HealthChecker) CheckHealth(ctx context.Context) *domain.HealthResult {
	queueStatus := h.checkQueueHealth(ctx)

	overallStatus := domain.HealthResponseStatusHealthy
	if queueStatus.Status == domain.DependencyCheckStatusUnhealthy {
		overallStatus = domain.HealthResponseStatusUnhealthy
	}

	return &domain.HealthResult{
		OverallStatus: overallStatus,
		Queue:         queueStatus,
		Namespace:     h.queue.Namespace(),
		Uptime:        time.Since(h.startTime).Seconds(),
	}
}

func (h *HealthChecker) CheckReadiness(ctx context.Context) *domain.ReadinessResult {
	queueStatus := h.checkQueueHealth(ctx)

	overallStatus := domain.ReadinessResponseStatusReady
	if queueStatus.Status == domain.DependencyCheckStatusUnhealthy {
		overallStatus = domain.ReadinessResponseStatusNotReady
	}

	return &domain.ReadinessResult{
		OverallStatus: overallStatus,
		Queue:         queueStatus,
	}
}

func (h *HealthChecker) checkQueueHealth(ctx context.Context) domain.DependencyStatus {
	if err := ctx.Err(); err != nil {
		return domain.DependencyStatus{
			Status:      domain.DependencyCheckStatusUnhealthy,
			LastChecked: time.Now(),
			Error:       "health check timeout",
		}
	}

	if !h.queue.IsConnected() {
		return domain.DependencyStatus{
			Status:      domain.DependencyCheckStatusUnhealthy,
			LastChecked: time.Now(),
			Error:       "not connected to broker",
		}
	}

	return domain.DependencyStatus{
		Status:      domain.DependencyCheckStatusHealthy,
		LastChecked: time.Now(),
	}
}
