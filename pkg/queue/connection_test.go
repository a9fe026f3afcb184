package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDialer hands out conns in order and counts the attempts.
type countingDialer struct {
	calls atomic.Int32
	delay time.Duration
	conns []connection
	errs  []error
}

func (d *countingDialer) dial(string, amqp.Config) (connection, error) {
	i := int(d.calls.Add(1)) - 1

	time.Sleep(d.delay)

	if i < len(d.errs) && d.errs[i] != nil {
		return nil, d.errs[i]
	}

	return d.conns[min(i, len(d.conns)-1)], nil
}

func TestQueue_ConcurrentConnectDialsOnce(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{
		delay: 20 * time.Millisecond,
		conns: []connection{&MockConnection{}},
	}

	q := New(testURL, withDialer(dialer.dial))

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, q.Connect(context.Background()))
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), dialer.calls.Load())
}

func TestQueue_DialFailureIsRetried(t *testing.T) {
	t.Parallel()

	errRefused := errors.New("connection refused")

	dialer := &countingDialer{
		conns: []connection{&MockConnection{}},
		errs:  []error{errRefused},
	}

	q := New(testURL, withDialer(dialer.dial))

	err := q.Connect(context.Background())
	require.ErrorIs(t, err, errRefused)
	assert.Contains(t, err.Error(), "failed to connect to RabbitMQ")

	require.NoError(t, q.Connect(context.Background()))
	assert.Equal(t, int32(2), dialer.calls.Load())
}

func TestQueue_AbnormalConnectionCloseRedials(t *testing.T) {
	t.Parallel()

	first := &MockConnection{}
	second := &MockConnection{}

	dialer := &countingDialer{
		conns: []connection{first, second},
	}

	recorder := &errorRecorder{}
	q := New(testURL, withDialer(dialer.dial), WithErrorHandler(recorder.handle))

	require.NoError(t, q.Connect(context.Background()))

	first.shutdown(&amqp.Error{Code: amqp.ConnectionForced, Reason: "broker shutdown"})

	assert.Eventually(t, func() bool {
		return len(recorder.all()) == 1 && q.conns.len() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, recorder.all()[0].Error(), "connection closed unexpectedly")

	require.NoError(t, q.Connect(context.Background()))
	assert.Equal(t, int32(2), dialer.calls.Load())

	conn, ok := q.conns.peek(connectionKey)
	require.True(t, ok)
	assert.Same(t, second, conn)
}

func TestQueue_DialAfterCloseIsDiscarded(t *testing.T) {
	t.Parallel()

	conn := &MockConnection{}
	conn.On("Close").Return(nil).Once()

	q := newTestQueue(t, conn)
	q.closed.Store(true)

	_, err := q.connect(context.Background())
	require.ErrorIs(t, err, ErrClosed)

	conn.AssertExpectations(t)
}

func TestQueue_CanceledConnectReturnsContextError(t *testing.T) {
	t.Parallel()

	dialer := &countingDialer{
		delay: 50 * time.Millisecond,
		conns: []connection{&MockConnection{}},
	}

	q := New(testURL, withDialer(dialer.dial))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := q.Connect(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Eventually(t, func() bool {
		return q.conns.len() == 1
	}, time.Second, 5*time.Millisecond)
}
