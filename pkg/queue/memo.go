package queue

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// memo lazily initializes one value per key.
//
// At most one initialization runs per key at a time and every concurrent caller observes its
// outcome. Successful values are kept until forgotten; failures are not kept, so the next call
// starts a fresh attempt.
type memo[T comparable] struct {
	group singleflight.Group

	mu     sync.RWMutex
	values map[string]T
}

func newMemo[T comparable]() *memo[T] {
	return &memo[T]{
		values: map[string]T{},
	}
}

// get returns the value stored under key, running init when there is none yet.
// A canceled ctx abandons the wait, never the shared attempt.
func (m *memo[T]) get(ctx context.Context, key string, init func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if v, ok := m.peek(key); ok {
		return v, nil
	}

	initCtx := context.WithoutCancel(ctx)

	results := m.group.DoChan(key, func() (any, error) {
		if v, ok := m.peek(key); ok {
			return v, nil
		}

		v, err := init(initCtx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.values[key] = v
		m.mu.Unlock()

		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}

		v, _ := res.Val.(T)

		return v, nil
	}
}

func (m *memo[T]) peek(key string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]

	return v, ok
}

// forget drops key only while it still holds v, so a replacement stored meanwhile survives.
func (m *memo[T]) forget(key string, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.values[key]; ok && current == v {
		delete(m.values, key)
	}
}

func (m *memo[T]) len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.values)
}
