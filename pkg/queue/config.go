package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Config is used to build the URL of a RabbitMQ server.
type Config struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Vhost    string
}

// URL renders the configuration as an AMQP URI.
func (cfg Config) URL() string {
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "amqp"
	}

	uri := amqp.URI{
		Scheme:   scheme,
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Vhost:    cfg.Vhost,
	}

	return uri.String()
}
