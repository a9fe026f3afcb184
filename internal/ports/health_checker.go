package ports

import (
	"context"

	"github.com/architeacher/svc-pattern-queue/internal/domain"
)

type (
	HealthChecker interface {
		CheckHealth(ctx context.Context) *domain.HealthResult
		CheckReadiness(ctx context.Context) *domain.ReadinessResult
	}
)
