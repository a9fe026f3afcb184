package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentTypeJSON = "application/json"

// delivery interface for testing purposes
type delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Message is a consumed payload.
type Message struct {
	// Body holds the decoded JSON value: maps, slices, strings, float64 numbers, booleans or nil.
	Body any

	raw []byte
}

func decodeMessage(raw []byte) (Message, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return Message{Body: body, raw: raw}, nil
}

// NewMessage decodes a JSON body the way the consumer does for every delivery.
func NewMessage(raw []byte) (Message, error) {
	return decodeMessage(raw)
}

func encodePayload(payload any) ([]byte, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not marshal payload: %w", err)
	}

	return content, nil
}

// Raw returns the message body as it was delivered.
func (m Message) Raw() []byte {
	return m.raw
}

// Unmarshal parses the message body and stores the result in the value pointed to by target.
func (m Message) Unmarshal(target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("target must be a non-nil pointer")
	}

	if err := json.Unmarshal(m.raw, target); err != nil {
		return fmt.Errorf("could not unmarshal into target: %w", err)
	}

	return nil
}

// Delivery carries the broker metadata of a consumed message.
type Delivery struct {
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
	ConsumerTag string
	MessageID   string
	Timestamp   time.Time
	Headers     amqp.Table
}

func newDelivery(d amqp.Delivery) Delivery {
	return Delivery{
		DeliveryTag: d.DeliveryTag,
		Redelivered: d.Redelivered,
		Exchange:    d.Exchange,
		RoutingKey:  d.RoutingKey,
		ConsumerTag: d.ConsumerTag,
		MessageID:   d.MessageId,
		Timestamp:   d.Timestamp,
		Headers:     d.Headers,
	}
}

// AckFunc completes the processing of a message. A nil error acknowledges it, removing it from
// the queue for good. A non-nil error hands it back to the broker for redelivery, with no limit
// on the number of attempts. Only the first call has an effect.
type AckFunc func(err error)

// Handler processes consumed messages.
type Handler interface {
	Handle(ctx context.Context, msg Message, delivery Delivery, ack AckFunc)
}

// HandlerFunc is a Handler that only needs the payload.
type HandlerFunc func(ctx context.Context, msg Message, ack AckFunc)

// Handle calls f(ctx, msg, ack).
func (f HandlerFunc) Handle(ctx context.Context, msg Message, _ Delivery, ack AckFunc) {
	f(ctx, msg, ack)
}

// DetailedHandlerFunc is a Handler that also inspects the delivery metadata.
type DetailedHandlerFunc func(ctx context.Context, msg Message, delivery Delivery, ack AckFunc)

// Handle calls f(ctx, msg, delivery, ack).
func (f DetailedHandlerFunc) Handle(ctx context.Context, msg Message, delivery Delivery, ack AckFunc) {
	f(ctx, msg, delivery, ack)
}
