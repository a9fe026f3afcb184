package middleware

import (
	"context"
	"net/http"
	"strings"
)

type skipAccessLogKey struct{}

// HealthCheckFilter marks probe requests so the access logger leaves them out.
type HealthCheckFilter struct {
	healthEndpoints []string
	logHealthChecks bool
}

func NewHealthCheckFilter(logHealthChecks bool) *HealthCheckFilter {
	return &HealthCheckFilter{
		healthEndpoints: []string{
			"/health",
			"/ready",
			"/live",
			"/healthz",
			"/readyz",
			"/livez",
		},
		logHealthChecks: logHealthChecks,
	}
}

func (h *HealthCheckFilter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.logHealthChecks && h.isHealthCheck(r.URL.Path) {
			r = r.WithContext(context.WithValue(r.Context(), skipAccessLogKey{}, true))
		}

		next.ServeHTTP(w, r)
	})
}

func (h *HealthCheckFilter) isHealthCheck(path string) bool {
	for _, endpoint := range h.healthEndpoints {
		if strings.HasSuffix(path, endpoint) {
			return true
		}
	}

	return false
}

func skipAccessLog(ctx context.Context) bool {
	skip, ok := ctx.Value(skipAccessLogKey{}).(bool)

	return ok && skip
}
