package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const connectionKey = "connection"

// connection is the subset of *amqp.Connection the queue relies on.
type connection interface {
	openChannel() (amqpChannel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

type dialer func(url string, cfg amqp.Config) (connection, error)

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) openChannel() (amqpChannel, error) {
	ch, err := c.Channel()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

func dialAMQP(url string, cfg amqp.Config) (connection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}

	return amqpConnection{Connection: conn}, nil
}

// connection returns the broker connection, dialing it on first use.
func (q *Queue) connection(ctx context.Context) (connection, error) {
	return q.conns.get(ctx, connectionKey, q.connect)
}

func (q *Queue) connect(_ context.Context) (connection, error) {
	conn, err := q.dial(q.url, q.amqpConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	if q.closed.Load() {
		_ = conn.Close()

		return nil, ErrClosed
	}

	closes := conn.NotifyClose(make(chan *amqp.Error, 1))
	go q.watchConnection(conn, closes)

	q.logger.Info().Str("namespace", q.namespace).Msg("connected to RabbitMQ")

	return conn, nil
}

// watchConnection reports an abnormal connection close and lets the next caller re-dial.
func (q *Queue) watchConnection(conn connection, closes <-chan *amqp.Error) {
	amqpErr, ok := <-closes

	q.conns.forget(connectionKey, conn)

	if !ok || amqpErr == nil {
		q.logger.Debug().Msg("connection closed")

		return
	}

	q.sink.emit(fmt.Errorf("connection closed unexpectedly: %w", amqpErr))
}
