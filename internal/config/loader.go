package config

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/architeacher/svc-pattern-queue/internal/ports"
)

const redacted = "[REDACTED]"

// Loader keeps a ServiceConfig in sync with the broker credentials stored in Vault.
type Loader struct {
	cfg          *ServiceConfig
	secretsRepo  ports.SecretsRepository
	signals      chan os.Signal
	reloadErrors chan error
	dumpWriter   io.Writer
	lastVersion  uint
}

func NewLoader(cfg *ServiceConfig, secretsRepo ports.SecretsRepository, initialVersion uint) *Loader {
	return &Loader{
		cfg:          cfg,
		secretsRepo:  secretsRepo,
		signals:      make(chan os.Signal, 1),
		reloadErrors: make(chan error, 1),
		dumpWriter:   os.Stdout,
		lastVersion:  initialVersion,
	}
}

// Init config from environment variables.
func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.AppConfig.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.AppConfig.CommitSHA = CommitSHA
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return cfg, nil
}

// WatchConfigSignals reloads the secrets on SIGHUP and dumps the configuration on SIGUSR1.
// With secret storage enabled the secrets are also polled every PollInterval.
// The returned channel carries the outcome of every reload and is closed once ctx is done.
func (l *Loader) WatchConfigSignals(ctx context.Context) <-chan error {
	signal.Notify(l.signals, syscall.SIGHUP, syscall.SIGUSR1)

	var poll <-chan time.Time

	var ticker *time.Ticker
	if l.cfg.SecretStorage.Enabled && l.cfg.SecretStorage.PollInterval > 0 {
		ticker = time.NewTicker(l.cfg.SecretStorage.PollInterval)
		poll = ticker.C
	}

	go func() {
		defer close(l.reloadErrors)
		defer signal.Stop(l.signals)

		if ticker != nil {
			defer ticker.Stop()
		}

		for {
			select {
			case <-ctx.Done():
				return

			case <-poll:
				l.reload(ctx)

			case sig := <-l.signals:
				switch sig {
				case syscall.SIGHUP:
					if l.cfg.SecretStorage.Enabled {
						l.reload(ctx)
					}

				case syscall.SIGUSR1:
					l.DumpConfig()
				}
			}
		}
	}()

	return l.reloadErrors
}

// DumpConfig writes the current configuration as JSON with credentials masked.
func (l *Loader) DumpConfig() {
	configJSON, err := json.MarshalIndent(redactedConfig(*l.cfg), "", "  ")
	if err != nil {
		fmt.Fprintf(l.dumpWriter, "Error marshaling config: %v\n", err)

		return
	}

	fmt.Fprintf(l.dumpWriter, "\n=== Configuration Dump ===\n%s\n=== End Configuration ===\n\n", string(configJSON))
}

// Load authenticates against Vault and applies the broker secrets to cfg.
// It returns the version of the secret that was applied.
func (l *Loader) Load(ctx context.Context, secretsRepo ports.SecretsRepository, cfg *ServiceConfig) (uint, error) {
	if !cfg.SecretStorage.Enabled {
		return 0, fmt.Errorf("secret storage is not enabled")
	}

	if err := authenticate(ctx, secretsRepo, cfg.SecretStorage); err != nil {
		return 0, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	data, metadata, err := readSecret(ctx, secretsRepo, cfg.SecretStorage)
	if err != nil {
		return 0, fmt.Errorf("failed to load secrets from Vault: %w", err)
	}

	if err := applySecrets(cfg, data); err != nil {
		return 0, fmt.Errorf("failed to apply secrets to config: %w", err)
	}

	version, err := secretVersion(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to get secret version: %w", err)
	}

	return version, nil
}

// reload applies the secrets again when their version moved since the last load.
func (l *Loader) reload(ctx context.Context) {
	metadata, err := readSecretMetadata(ctx, l.secretsRepo, l.cfg.SecretStorage)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to load secret metadata: %w", err))

		return
	}

	currentVersion, err := secretVersion(metadata)
	if err != nil {
		l.reportReloadStatus(fmt.Errorf("failed to get secret version: %w", err))

		return
	}

	if currentVersion == l.lastVersion {
		return
	}

	version, err := l.Load(ctx, l.secretsRepo, l.cfg)
	if err != nil {
		l.reportReloadStatus(err)

		return
	}

	l.lastVersion = version
	l.reportReloadStatus(nil)
}

// reportReloadStatus never blocks, a reload outcome nobody reads is dropped.
func (l *Loader) reportReloadStatus(err error) {
	select {
	case l.reloadErrors <- err:
	default:
	}
}

func redactedConfig(cfg ServiceConfig) ServiceConfig {
	if cfg.Queue.Password != "" {
		cfg.Queue.Password = redacted
	}

	if cfg.SecretStorage.Token != "" {
		cfg.SecretStorage.Token = redacted
	}

	if cfg.SecretStorage.SecretID != "" {
		cfg.SecretStorage.SecretID = redacted
	}

	return cfg
}
