package domain

import (
	"encoding/json"
	"time"
)

type (
	// Event is one payload read by the publisher, pushed verbatim as the message body.
	Event struct {
		Pattern string
		Payload json.RawMessage
		Delay   time.Duration
	}

	PublishResult struct {
		Pattern  string
		Delayed  bool
		Attempts int
	}

	// EventFlags are the control fields the subscriber looks at on every payload.
	EventFlags struct {
		Fail bool `json:"fail"`
	}

	ProcessDeliveryResult struct {
		Requeue bool
	}
)

// NewEvent validates a raw payload line.
func NewEvent(pattern string, line []byte, delay time.Duration) (Event, error) {
	if len(line) == 0 {
		return Event{}, ErrEmptyPayload
	}

	if !json.Valid(line) {
		return Event{}, ErrInvalidPayload
	}

	payload := make(json.RawMessage, len(line))
	copy(payload, line)

	return Event{
		Pattern: pattern,
		Payload: payload,
		Delay:   delay,
	}, nil
}
