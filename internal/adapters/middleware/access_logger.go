package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type AccessLogger struct {
	logger zerolog.Logger
}

func NewAccessLogger(logger zerolog.Logger) *AccessLogger {
	return &AccessLogger{
		logger: logger.With().Str("component", "ops_access").Logger(),
	}
}

func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if skipAccessLog(r.Context()) {
			next.ServeHTTP(w, r)

			return
		}

		startTime := time.Now()
		recorder := newResponseRecorder(w)

		next.ServeHTTP(recorder, r)

		duration := time.Since(startTime)

		logEvent := a.event(recorder.StatusCode()).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Int("status_code", recorder.StatusCode()).
			Int64("response_size_bytes", recorder.BytesWritten()).
			Dur("duration", duration)

		if requestID := chimiddleware.GetReqID(r.Context()); requestID != "" {
			logEvent = logEvent.Str("request_id", requestID)
		}

		if spanCtx := trace.SpanContextFromContext(r.Context()); spanCtx.HasTraceID() {
			logEvent = logEvent.Str("trace_id", spanCtx.TraceID().String())
		}

		logEvent.Msg("ops request completed")
	})
}

func (a *AccessLogger) event(statusCode int) *zerolog.Event {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return a.logger.Error()
	case statusCode >= http.StatusBadRequest:
		return a.logger.Warn()
	default:
		return a.logger.Info()
	}
}
