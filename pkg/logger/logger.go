package logger

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level represents logging level
type Level = zerolog.Level

// Logger levels
const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
	FatalLevel = zerolog.FatalLevel
)

// ErrShutdown is returned when a logger is requested from a factory that was shut down.
var ErrShutdown = errors.New("cannot create logger after shutdown")

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     string // "console" or "json"
	TimeFormat string
	Output     io.Writer
}

// ParseLevel converts a textual level, falling back to info.
func ParseLevel(s string) Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return InfoLevel
	}
	return lvl
}

// Logger wraps zerolog.Logger
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a new logger instance
func NewLogger(cfg *Config) *Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var out io.Writer = cfg.Output
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: cfg.TimeFormat,
		}
	}

	zl := zerolog.New(out).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()

	return &Logger{zl: zl}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Named returns a child logger tagged with a component name.
func (l *Logger) Named(component string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", component).Logger()}
}

// WithFields adds fields to logger
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// Zerolog exposes the underlying logger for event-style call sites.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	l.zl.Info().Fields(fields).Msg(msg)
}

func (l *Logger) Warn(err error, msg string, fields ...interface{}) {
	l.zl.Warn().Err(err).Fields(fields).Msg(msg)
}

func (l *Logger) Error(err error, msg string, fields ...interface{}) {
	l.zl.Error().Err(err).Fields(fields).Msg(msg)
}

func (l *Logger) Fatal(err error, msg string, fields ...interface{}) {
	l.zl.Fatal().Err(err).Fields(fields).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	l.zl.Debug().Fields(fields).Msg(msg)
}

// Factory owns the root logger and hands out component loggers until it is shut down.
type Factory struct {
	mu       sync.Mutex
	root     *Logger
	closer   io.Closer
	shutdown bool
}

// NewFactory builds the root logger from cfg. If cfg.Output is an io.Closer
// it is closed on Shutdown.
func NewFactory(cfg *Config) *Factory {
	f := &Factory{root: NewLogger(cfg)}
	if cfg != nil {
		if c, ok := cfg.Output.(io.Closer); ok && cfg.Output != os.Stdout && cfg.Output != os.Stderr {
			f.closer = c
		}
	}
	return f
}

// Logger returns a logger for the named component.
func (f *Factory) Logger(component string) (*Logger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shutdown {
		return nil, ErrShutdown
	}
	return f.root.Named(component), nil
}

// MustLogger is Logger for wiring code that runs before any shutdown can happen.
func (f *Factory) MustLogger(component string) *Logger {
	l, err := f.Logger(component)
	if err != nil {
		panic(err)
	}
	return l
}

// Shutdown stops the factory from creating loggers. It is safe to call more than once.
func (f *Factory) Shutdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shutdown {
		return nil
	}
	f.shutdown = true
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}
