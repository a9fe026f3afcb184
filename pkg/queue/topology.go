package queue

import (
	"strconv"
	"time"
)

const (
	defaultExchange = "globalexchange"
	exchangeKind    = "direct"

	// defaultQueueExpiry removes idle pattern queues that nobody consumes anymore.
	defaultQueueExpiry = 2 * 24 * time.Hour

	argExpires            = "x-expires"
	argMessageTTL         = "x-message-ttl"
	argDeadLetterExchange = "x-dead-letter-exchange"
)

// QueueName returns the name of the queue consuming pattern within namespace.
func QueueName(namespace, pattern string) string {
	return namespace + "." + pattern
}

// WaitQueueName returns the name of the detour queue holding messages for pattern until delay elapses.
func WaitQueueName(pattern string, delay time.Duration) string {
	return "waitqueue-" + delayMillis(delay) + "." + pattern
}

// WaitExchangeName returns the name of the exchange feeding the detour queues of delay.
func WaitExchangeName(delay time.Duration) string {
	return "waitexchange-" + delayMillis(delay)
}

func delayMillis(delay time.Duration) string {
	return strconv.FormatInt(millis(delay), 10)
}

// millis rounds positive sub-millisecond durations up so they never collapse into an immediate push.
func millis(d time.Duration) int64 {
	ms := d.Milliseconds()
	if d > 0 && ms == 0 {
		return 1
	}

	return ms
}
