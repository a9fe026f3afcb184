package config

import (
	"time"
)

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

type (
	ServiceConfig struct {
		AppConfig     AppConfig           `json:"app_config"`
		Logging       LoggingConfig       `json:"logging"`
		Telemetry     Telemetry           `json:"telemetry"`
		SecretStorage SecretStorageConfig `json:"secret_storage"`
		OpsServer     OpsServerConfig     `json:"ops_server"`
		Queue         QueueConfig         `json:"queue"`
		Publisher     PublisherConfig     `json:"publisher"`
		Subscriber    SubscriberConfig    `json:"subscriber"`
		Backoff       BackoffConfig       `json:"backoff"`
	}

	AppConfig struct {
		ServiceName    string `envconfig:"APP_SERVICE_NAME" default:"svc-pattern-queue" json:"service_name"`
		ServiceVersion string `envconfig:"APP_SERVICE_VERSION" default:"0.0.0" json:"service_version"`
		CommitSHA      string `envconfig:"APP_COMMIT_SHA" default:"unknown" json:"commit_sha"`
		Env            string `envconfig:"APP_ENVIRONMENT" default:"unknown" json:"env"`
	}

	LoggingConfig struct {
		Level     string          `envconfig:"LOGGING_LEVEL" default:"info" json:"level"`
		Format    string          `envconfig:"LOGGING_FORMAT" default:"json" json:"format"`
		AccessLog AccessLogConfig `json:"access_log"`
	}

	AccessLogConfig struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
	}

	Telemetry struct {
		ExporterType string `envconfig:"OTEL_EXPORTER" default:"grpc" json:"exporter_type"`

		OtelGRPCHost       string `envconfig:"OTEL_HOST" json:"otel_grpc_host"`
		OtelGRPCPort       string `envconfig:"OTEL_PORT" default:"4317" json:"otel_grpc_port"`
		OtelProductCluster string `envconfig:"OTEL_PRODUCT_CLUSTER" json:"otel_product_cluster"`

		Metrics Metrics `json:"metrics"`
		Traces  Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		Enabled      bool    `envconfig:"TRACES_ENABLED" default:"false" json:"enabled"`
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1" json:"sampler_ratio"`
	}

	SecretStorageConfig struct {
		Enabled       bool          `envconfig:"VAULT_ENABLED" default:"false" json:"enabled"`
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://vault:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"token,omitempty"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"role_id,omitempty"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"secret_id,omitempty"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		MountPath     string        `envconfig:"VAULT_MOUNT_PATH" default:"svc-pattern-queue" json:"mount_path"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    int           `envconfig:"VAULT_MAX_RETRIES" default:"3" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
		PollInterval  time.Duration `envconfig:"VAULT_POLL_INTERVAL" default:"24h" json:"poll_interval"`
	}

	OpsServerConfig struct {
		Enabled         bool          `envconfig:"OPS_SERVER_ENABLED" default:"true" json:"enabled"`
		Port            int           `envconfig:"OPS_SERVER_PORT" default:"8089" json:"port"`
		Host            string        `envconfig:"OPS_SERVER_HOST" default:"0.0.0.0" json:"host"`
		ReadTimeout     time.Duration `envconfig:"OPS_SERVER_READ_TIMEOUT" default:"5s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"OPS_SERVER_WRITE_TIMEOUT" default:"10s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"OPS_SERVER_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"OPS_SERVER_SHUTDOWN_TIMEOUT" default:"10s" json:"shutdown_timeout"`
	}

	QueueConfig struct {
		Scheme            string        `envconfig:"RABBITMQ_SCHEME" default:"amqp" json:"scheme"`
		Host              string        `envconfig:"RABBITMQ_HOST" default:"rabbitmq" json:"host"`
		Port              int           `envconfig:"RABBITMQ_PORT" default:"5672" json:"port"`
		Username          string        `envconfig:"RABBITMQ_USERNAME" default:"guest" json:"username"`
		Password          string        `envconfig:"RABBITMQ_PASSWORD" default:"guest" json:"password,omitempty"`
		VirtualHost       string        `envconfig:"RABBITMQ_VIRTUAL_HOST" default:"/" json:"virtual_host"`
		ExchangeName      string        `envconfig:"RABBITMQ_EXCHANGE_NAME" default:"globalexchange" json:"exchange_name"`
		ExchangeDurable   bool          `envconfig:"RABBITMQ_EXCHANGE_DURABLE" default:"true" json:"exchange_durable"`
		Namespace         string        `envconfig:"RABBITMQ_NAMESPACE" default:"" json:"namespace"`
		QueueExpires      time.Duration `envconfig:"RABBITMQ_QUEUE_EXPIRES" default:"48h" json:"queue_expires"`
		ConnectTimeout    time.Duration `envconfig:"RABBITMQ_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		Heartbeat         time.Duration `envconfig:"RABBITMQ_HEARTBEAT" default:"10s" json:"heartbeat"`
		PrefetchGlobal    int           `envconfig:"RABBITMQ_PREFETCH_GLOBAL" default:"0" json:"prefetch_global"`
		PrefetchLocal     int           `envconfig:"RABBITMQ_PREFETCH_LOCAL" default:"10" json:"prefetch_local"`
		PublishingTimeout time.Duration `envconfig:"RABBITMQ_PUBLISHING_TIMEOUT" default:"3s" json:"publishing_timeout"`
	}

	PublisherConfig struct {
		Pattern        string               `envconfig:"PUBLISHER_PATTERN" default:"events" json:"pattern"`
		Delay          time.Duration        `envconfig:"PUBLISHER_DELAY" default:"0s" json:"delay"`
		MaxRetries     int                  `envconfig:"PUBLISHER_MAX_RETRIES" default:"3" json:"max_retries"`
		CircuitBreaker CircuitBreakerConfig `envconfig:"PUBLISHER_CIRCUIT_BREAKER" json:"circuit_breaker"`
	}

	SubscriberConfig struct {
		Patterns    []string `envconfig:"SUBSCRIBER_PATTERNS" default:"events" json:"patterns"`
		ConsumerTag string   `envconfig:"SUBSCRIBER_CONSUMER_TAG" default:"" json:"consumer_tag"`
	}

	BackoffConfig struct {
		// BaseDelay is the amount of time to backoff after the first failure.
		BaseDelay time.Duration `envconfig:"BACKOFF_BASE_DELAY" default:"1s" json:"base_delay"`
		// Multiplier is the factor with which to multiply backoffs after a
		// failed retry. Should ideally be greater than 1.
		Multiplier float64 `envconfig:"BACKOFF_MULTIPLIER" default:"1.6" json:"multiplier"`
		// Jitter is the factor with which backoffs are randomized.
		Jitter float64 `envconfig:"BACKOFF_JITTER" default:"0.2" json:"jitter"`
		// MaxDelay is the upper bound of backoff delay.
		MaxDelay time.Duration `envconfig:"BACKOFF_MAX_DELAY" default:"10s" json:"max_delay"`
	}

	CircuitBreakerConfig struct {
		MaxRequests uint32        `envconfig:"MAX_REQUESTS" default:"3" json:"max_requests"`
		Interval    time.Duration `envconfig:"INTERVAL" default:"10s" json:"interval"`
		Timeout     time.Duration `envconfig:"TIMEOUT" default:"60s" json:"timeout"`
	}
)
