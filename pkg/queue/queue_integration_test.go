//go:build integration

package queue

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
)

const rabbitMQImage = "rabbitmq:3.13-management-alpine"

type QueueIntegrationTestSuite struct {
	suite.Suite

	container *rabbitmq.RabbitMQContainer
	amqpURL   string
	api       *resty.Client
}

func TestQueueIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(QueueIntegrationTestSuite))
}

func (s *QueueIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, rabbitMQImage)
	s.Require().NoError(err)

	s.container = container

	s.amqpURL, err = container.AmqpURL(ctx)
	s.Require().NoError(err)

	httpURL, err := container.HttpURL(ctx)
	s.Require().NoError(err)

	s.api = resty.New().
		SetBaseURL(httpURL).
		SetBasicAuth(container.AdminUsername, container.AdminPassword).
		SetTimeout(5 * time.Second)
}

func (s *QueueIntegrationTestSuite) TearDownSuite() {
	s.NoError(testcontainers.TerminateContainer(s.container))
}

func (s *QueueIntegrationTestSuite) newQueue(opts ...Option) *Queue {
	q := New(s.amqpURL, opts...)
	s.T().Cleanup(func() { _ = q.Close() })

	return q
}

func (s *QueueIntegrationTestSuite) queueStatus(name string) int {
	resp, err := s.api.R().Get("/api/queues/%2F/" + name)
	s.Require().NoError(err)

	return resp.StatusCode()
}

func (s *QueueIntegrationTestSuite) pattern() string {
	return "it." + uuid.NewString()[:8]
}

func collect(out chan<- Message) Handler {
	return HandlerFunc(func(_ context.Context, msg Message, ack AckFunc) {
		out <- msg
		ack(nil)
	})
}

func (s *QueueIntegrationTestSuite) TestEphemeralQueueLifecycle() {
	ctx := context.Background()
	pattern := s.pattern()

	q := New(s.amqpURL)
	name := QueueName(q.Namespace(), pattern)

	s.Require().NoError(q.Pull(ctx, pattern, collect(make(chan Message, 1))))

	s.Eventually(func() bool {
		return s.queueStatus(name) == http.StatusOK
	}, 5*time.Second, 100*time.Millisecond)

	s.Require().NoError(q.Close())

	s.Eventually(func() bool {
		return s.queueStatus(name) == http.StatusNotFound
	}, 5*time.Second, 100*time.Millisecond)
}

func (s *QueueIntegrationTestSuite) TestRoundTrip() {
	ctx := context.Background()
	pattern := s.pattern()

	q := s.newQueue()
	received := make(chan Message, 1)

	s.Require().NoError(q.Pull(ctx, pattern, collect(received)))
	s.Require().NoError(q.Push(ctx, pattern, map[string]int{"ok": 1}))

	select {
	case msg := <-received:
		s.Equal(map[string]any{"ok": float64(1)}, msg.Body)
	case <-time.After(5 * time.Second):
		s.Fail("message was not delivered")
	}
}

func (s *QueueIntegrationTestSuite) TestCompetingConsumersShareMessages() {
	ctx := context.Background()
	pattern := s.pattern()
	namespace := "it-" + uuid.NewString()[:8]

	const pushes = 20

	received := make(chan Message, pushes*2)

	first := s.newQueue(WithNamespace(namespace), WithQueueOptions(QueueOptions{AutoDelete: true}))
	second := s.newQueue(WithNamespace(namespace), WithQueueOptions(QueueOptions{AutoDelete: true}))

	s.Require().NoError(first.Pull(ctx, pattern, collect(received)))
	s.Require().NoError(second.Pull(ctx, pattern, collect(received)))

	for i := range pushes {
		s.Require().NoError(first.Push(ctx, pattern, i))
	}

	seen := map[float64]int{}

	for range pushes {
		select {
		case msg := <-received:
			seen[msg.Body.(float64)]++
		case <-time.After(5 * time.Second):
			s.FailNow("missing deliveries", "got %d of %d", len(seen), pushes)
		}
	}

	s.Len(seen, pushes)

	for i, count := range seen {
		s.Equal(1, count, "message %v delivered more than once", i)
	}

	select {
	case msg := <-received:
		s.Fail("unexpected extra delivery", "%v", msg.Body)
	case <-time.After(300 * time.Millisecond):
	}
}

func (s *QueueIntegrationTestSuite) TestDistinctNamespacesFanOut() {
	ctx := context.Background()
	pattern := s.pattern()

	const pushes = 5

	var (
		mu     sync.Mutex
		counts = map[string]int{}
		wg     sync.WaitGroup
	)

	wg.Add(pushes * 2)

	count := func(namespace string) Handler {
		return HandlerFunc(func(_ context.Context, _ Message, ack AckFunc) {
			mu.Lock()
			counts[namespace]++
			mu.Unlock()

			ack(nil)
			wg.Done()
		})
	}

	first := s.newQueue()
	second := s.newQueue()

	s.Require().NoError(first.Pull(ctx, pattern, count(first.Namespace())))
	s.Require().NoError(second.Pull(ctx, pattern, count(second.Namespace())))

	for i := range pushes {
		s.Require().NoError(first.Push(ctx, pattern, i))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.FailNow("fan-out incomplete")
	}

	mu.Lock()
	defer mu.Unlock()

	s.Equal(pushes, counts[first.Namespace()])
	s.Equal(pushes, counts[second.Namespace()])
}

func (s *QueueIntegrationTestSuite) TestDelayedPush() {
	ctx := context.Background()
	pattern := s.pattern()
	delay := time.Second

	q := s.newQueue()
	received := make(chan Message, 1)

	s.Require().NoError(q.Pull(ctx, pattern, collect(received)))

	pushed := time.Now()
	s.Require().NoError(q.Push(ctx, pattern, map[string]string{"id": "delayed"}, WithDelay(delay)))

	select {
	case msg := <-received:
		s.GreaterOrEqual(time.Since(pushed), delay-50*time.Millisecond)
		s.JSONEq(`{"id":"delayed"}`, string(msg.Raw()))
	case <-time.After(10 * time.Second):
		s.Fail("delayed message was not delivered")
	}

	s.Equal(http.StatusOK, s.queueStatus(WaitQueueName(pattern, delay)))
}

func (s *QueueIntegrationTestSuite) TestFailedMessageIsRedelivered() {
	ctx := context.Background()
	pattern := s.pattern()

	q := s.newQueue()
	deliveries := make(chan Delivery, 3)

	handler := DetailedHandlerFunc(func(_ context.Context, _ Message, d Delivery, ack AckFunc) {
		deliveries <- d

		if !d.Redelivered {
			ack(errors.New("first attempt fails"))

			return
		}

		ack(nil)
	})

	s.Require().NoError(q.Pull(ctx, pattern, handler))
	s.Require().NoError(q.Push(ctx, pattern, "retry me"))

	for attempt := range 2 {
		select {
		case d := <-deliveries:
			s.Equal(attempt > 0, d.Redelivered, fmt.Sprintf("attempt %d", attempt))
		case <-time.After(5 * time.Second):
			s.FailNow("message was not redelivered")
		}
	}

	select {
	case <-deliveries:
		s.Fail("acknowledged message was delivered again")
	case <-time.After(300 * time.Millisecond):
	}
}

func (s *QueueIntegrationTestSuite) TestConcurrentPullsAndDelayedPushesAreIndependent() {
	ctx := context.Background()
	prefix := s.pattern()

	const patterns = 20

	q := s.newQueue()
	received := make(chan Message, patterns)
	errs := make(chan error, 2*patterns)

	var wg sync.WaitGroup

	for i := range patterns {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs <- q.Pull(ctx, fmt.Sprintf("%s.%d", prefix, i), collect(received))
		}()
	}

	wg.Wait()

	for i := range patterns {
		wg.Add(1)

		go func() {
			defer wg.Done()

			delay := time.Duration(100+10*i) * time.Millisecond
			errs <- q.Push(ctx, fmt.Sprintf("%s.%d", prefix, i), i, WithDelay(delay))
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	got := make(map[float64]bool, patterns)

	for range patterns {
		select {
		case msg := <-received:
			n, ok := msg.Body.(float64)
			s.Require().True(ok)
			got[n] = true
		case <-time.After(10 * time.Second):
			s.FailNow("delayed message was not delivered")
		}
	}

	s.Len(got, patterns)
}
