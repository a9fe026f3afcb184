package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheckFilter_Middleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		path                string
		logHealthChecks     bool
		expectSkipAccessLog bool
	}{
		{
			name:                "skips health endpoint when logging disabled",
			path:                "/health",
			expectSkipAccessLog: true,
		},
		{
			name:                "skips readiness endpoint when logging disabled",
			path:                "/readyz",
			expectSkipAccessLog: true,
		},
		{
			name:                "skips prefixed liveness endpoint when logging disabled",
			path:                "/ops/live",
			expectSkipAccessLog: true,
		},
		{
			name:                "keeps metrics endpoint",
			path:                "/metrics",
			expectSkipAccessLog: false,
		},
		{
			name:                "keeps health endpoint when logging enabled",
			path:                "/health",
			logHealthChecks:     true,
			expectSkipAccessLog: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var skipped bool
			handler := NewHealthCheckFilter(tc.logHealthChecks).Middleware(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					skipped = skipAccessLog(r.Context())
					w.WriteHeader(http.StatusOK)
				}),
			)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.expectSkipAccessLog, skipped)
		})
	}
}
