package queue

import (
	"context"
	"time"
)

// Delivery outcomes reported to Metrics.RecordDelivery.
const (
	OutcomeAck     = "ack"
	OutcomeRequeue = "requeue"
	OutcomeReject  = "reject"
)

// Metrics receives counters and timings for queue operations.
type Metrics interface {
	RecordPush(ctx context.Context, pattern string, delayed bool, err error)
	RecordProvision(ctx context.Context, waitQueue string, err error)
	RecordDelivery(ctx context.Context, pattern, outcome string, duration time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) RecordPush(context.Context, string, bool, error) {}
func (nopMetrics) RecordProvision(context.Context, string, error) {}
func (nopMetrics) RecordDelivery(context.Context, string, string, time.Duration) {}
