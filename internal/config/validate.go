package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate reports every setting the services cannot start with.
func (cfg *ServiceConfig) Validate() error {
	var errs []error

	if strings.TrimSpace(cfg.Publisher.Pattern) == "" {
		errs = append(errs, errors.New("PUBLISHER_PATTERN must not be empty"))
	}

	if cfg.Publisher.Delay < 0 {
		errs = append(errs, fmt.Errorf("PUBLISHER_DELAY must not be negative, got %s", cfg.Publisher.Delay))
	}

	if cfg.Publisher.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("PUBLISHER_MAX_RETRIES must not be negative, got %d", cfg.Publisher.MaxRetries))
	}

	if len(cfg.Subscriber.Patterns) == 0 {
		errs = append(errs, errors.New("SUBSCRIBER_PATTERNS must name at least one pattern"))
	}

	if ratio := cfg.Telemetry.Traces.SamplerRatio; ratio < 0 || ratio > 1 {
		errs = append(errs, fmt.Errorf("TRACES_SAMPLER_RATIO must be within [0, 1], got %v", ratio))
	}

	if cfg.Queue.PrefetchLocal < 0 || cfg.Queue.PrefetchGlobal < 0 {
		errs = append(errs, errors.New("RABBITMQ_PREFETCH_* must not be negative"))
	}

	return errors.Join(errs...)
}

// normalize drops blank entries from comma separated lists such as "a, ,b".
func (cfg *ServiceConfig) normalize() {
	patterns := make([]string, 0, len(cfg.Subscriber.Patterns))
	for _, pattern := range cfg.Subscriber.Patterns {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			patterns = append(patterns, pattern)
		}
	}

	cfg.Subscriber.Patterns = patterns
	cfg.Publisher.Pattern = strings.TrimSpace(cfg.Publisher.Pattern)
}
