package infrastructure

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	patternKey   = "queue.pattern"
	delayedKey   = "queue.delayed"
	waitQueueKey = "queue.wait_queue"
	outcomeKey   = "queue.outcome"
	commandKey   = "command"
	statusKey    = "status"
)

func PatternAttr(pattern string) attribute.KeyValue {
	return attribute.String(patternKey, pattern)
}

func DelayedAttr(delayed bool) attribute.KeyValue {
	return attribute.Bool(delayedKey, delayed)
}

func WaitQueueAttr(waitQueue string) attribute.KeyValue {
	return attribute.String(waitQueueKey, waitQueue)
}

func OutcomeAttr(outcome string) attribute.KeyValue {
	return attribute.String(outcomeKey, outcome)
}

func StatusAttr(status string) attribute.KeyValue {
	return attribute.String(statusKey, status)
}

func CommandAttr(command string) attribute.KeyValue {
	return attribute.String(commandKey, command)
}
