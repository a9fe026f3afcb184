package queue

import (
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by operations on a queue that has been closed.
	ErrClosed = errors.New("queue is closed")
	// ErrEmptyPattern is returned when a push or pull is attempted without a routing pattern.
	ErrEmptyPattern = errors.New("pattern must not be empty")
	// ErrInvalidDelay is returned when a push is requested with a negative delay.
	ErrInvalidDelay = errors.New("delay must not be negative")
	// ErrNilHandler is returned when a pull is attempted without a handler.
	ErrNilHandler = errors.New("handler must not be nil")
	// ErrDecode wraps failures to decode a delivered message body.
	ErrDecode = errors.New("failed to decode message")
)

// errorSink receives failures that have no caller left to report to.
// Every failure is logged, but the handler only ever sees the first one.
type errorSink struct {
	once    sync.Once
	handler func(error)
	logger  Logger
}

func newErrorSink(handler func(error), logger Logger) *errorSink {
	return &errorSink{
		handler: handler,
		logger:  logger,
	}
}

func (s *errorSink) emit(err error) {
	if err == nil {
		return
	}

	s.logger.Error().Err(err).Msg("unhandled queue error")

	if s.handler == nil {
		return
	}

	s.once.Do(func() {
		s.handler(err)
	})
}
