package infrastructure

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/architeacher/svc-pattern-queue/internal/config"
)

const textFormat = "text"

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// Logger is the service wide structured logger.
type Logger struct {
	zerolog.Logger
}

// New creates a Logger writing to stdout in the configured level and format.
func New(cfg config.LoggingConfig) *Logger {
	return newLogger(os.Stdout, cfg)
}

// NewTestLogger creates a Logger writing to w, for assertions on the log output.
func NewTestLogger(w io.Writer) *Logger {
	return newLogger(w, config.LoggingConfig{Level: zerolog.LevelDebugValue, Format: "json"})
}

func newLogger(w io.Writer, cfg config.LoggingConfig) *Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if strings.EqualFold(cfg.Format, textFormat) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return &Logger{
		Logger: zerolog.New(w).Level(level).With().Timestamp().Logger(),
	}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", name).Logger(),
	}
}
