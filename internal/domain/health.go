package domain

import (
	"time"
)

type (
	DependencyStatus struct {
		Status      DependencyCheckStatus `json:"status"`
		LastChecked time.Time             `json:"last_checked"`
		Error       string                `json:"error,omitempty"`
	}

	// HealthResult is what the ops server reports on /health.
	HealthResult struct {
		OverallStatus HealthResponseStatus `json:"status"`
		Queue         DependencyStatus     `json:"queue"`
		Namespace     string               `json:"namespace"`
		Uptime        float64              `json:"uptime_seconds"`
	}

	ReadinessResult struct {
		OverallStatus ReadinessResponseStatus `json:"status"`
		Queue         DependencyStatus        `json:"queue"`
	}
)

func (r *HealthResult) IsHealthy() bool {
	return r.OverallStatus == HealthResponseStatusHealthy
}

func (r *ReadinessResult) IsReady() bool {
	return r.OverallStatus == ReadinessResponseStatusReady
}
