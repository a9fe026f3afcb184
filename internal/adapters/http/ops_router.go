package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/architeacher/svc-pattern-queue/internal/adapters/middleware"
	"github.com/architeacher/svc-pattern-queue/internal/config"
	"github.com/architeacher/svc-pattern-queue/internal/infrastructure"
)

const opsOperation = "ops"

// NewOpsRouter mounts the probes and the metrics endpoint.
func NewOpsRouter(
	cfg config.LoggingConfig,
	handler *OpsHandler,
	metricsHandler http.Handler,
	logger *infrastructure.Logger,
) http.Handler {
	router := chi.NewRouter()

	router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		chimiddleware.Recoverer,
	)

	if cfg.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.AccessLog.LogHealthChecks)
		accessLogger := middleware.NewAccessLogger(logger.Logger)

		router.Use(healthFilter.Middleware, accessLogger.Middleware)
	}

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)
	router.Get("/live", handler.Live)
	router.Method(http.MethodGet, "/metrics", metricsHandler)

	return otelhttp.NewHandler(router, opsOperation,
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics"
		}),
	)
}
