package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo_ConcurrentCallersShareOneInit(t *testing.T) {
	t.Parallel()

	m := newMemo[string]()

	var calls atomic.Int32
	release := make(chan struct{})

	init := func(context.Context) (string, error) {
		calls.Add(1)
		<-release

		return "value", nil
	}

	const callers = 20

	var wg sync.WaitGroup
	results := make(chan string, callers)

	for range callers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			v, err := m.get(context.Background(), "key", init)
			assert.NoError(t, err)

			results <- v
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for v := range results {
		assert.Equal(t, "value", v)
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, m.len())
}

func TestMemo_FailureIsNotCached(t *testing.T) {
	t.Parallel()

	m := newMemo[string]()
	errDial := errors.New("dial failed")

	_, err := m.get(context.Background(), "key", func(context.Context) (string, error) {
		return "", errDial
	})
	require.ErrorIs(t, err, errDial)
	assert.Equal(t, 0, m.len())

	v, err := m.get(context.Background(), "key", func(context.Context) (string, error) {
		return "second", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}

func TestMemo_ValueIsReused(t *testing.T) {
	t.Parallel()

	m := newMemo[int]()

	var calls int

	init := func(context.Context) (int, error) {
		calls++

		return calls, nil
	}

	for range 3 {
		v, err := m.get(context.Background(), "key", init)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	}

	assert.Equal(t, 1, calls)
}

func TestMemo_Forget(t *testing.T) {
	t.Parallel()

	m := newMemo[string]()

	_, err := m.get(context.Background(), "key", func(context.Context) (string, error) {
		return "current", nil
	})
	require.NoError(t, err)

	m.forget("key", "stale")

	v, ok := m.peek("key")
	assert.True(t, ok)
	assert.Equal(t, "current", v)

	m.forget("key", "current")

	_, ok = m.peek("key")
	assert.False(t, ok)
}

func TestMemo_CanceledWaitKeepsSharedAttempt(t *testing.T) {
	t.Parallel()

	m := newMemo[string]()
	release := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		_, err := m.get(ctx, "key", func(initCtx context.Context) (string, error) {
			<-release

			return "value", initCtx.Err()
		})
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)

	close(release)

	assert.Eventually(t, func() bool {
		v, ok := m.peek("key")

		return ok && v == "value"
	}, time.Second, 5*time.Millisecond)
}
