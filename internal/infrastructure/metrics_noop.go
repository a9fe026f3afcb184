package infrastructure

import (
	"context"
	"net/http"
	"time"
)

type NoOpMetrics struct{}

func (n *NoOpMetrics) RecordPush(_ context.Context, _ string, _ bool, _ error) {
}

func (n *NoOpMetrics) RecordProvision(_ context.Context, _ string, _ error) {
}

func (n *NoOpMetrics) RecordDelivery(_ context.Context, _, _ string, _ time.Duration) {
}

func (n *NoOpMetrics) RecordPublishRetry(_ context.Context, _ string) {
}

func (n *NoOpMetrics) RecordCommand(_ context.Context, _ string, _ time.Duration, _ error) {
}

func (n *NoOpMetrics) Handler() http.Handler {
	return http.NotFoundHandler()
}

func (n *NoOpMetrics) Shutdown(_ context.Context) error {
	return nil
}
