// Package logging builds the logrus loggers used across keyweave.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string

	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer

	// Prefix is added to every entry as the "app" field.
	Prefix string
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Output: os.Stderr,
		Prefix: "keyweave",
	}
}

// ParseLevel parses a level name. Unknown names yield info.
func ParseLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// New creates a logger entry from cfg. Colors are enabled only when the
// output is a terminal.
func New(cfg Config) *logrus.Entry {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	logger := logrus.New()
	logger.SetOutput(cfg.Output)
	logger.SetLevel(ParseLevel(cfg.Level))
	logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:      isTerminal(cfg.Output),
		DisableColors:    !isTerminal(cfg.Output),
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02T15:04:05.000",
		QuoteEmptyFields: true,
	})

	entry := logrus.NewEntry(logger)
	if cfg.Prefix != "" {
		entry = entry.WithField("app", cfg.Prefix)
	}
	return entry
}

// WithComponent returns a child entry with the component field set.
func WithComponent(log *logrus.Entry, component string) *logrus.Entry {
	return OrDiscard(log).WithField("component", component)
}

// Discard returns an entry that drops everything.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

// OrDiscard returns log, or a discarding entry when log is nil.
func OrDiscard(log *logrus.Entry) *logrus.Entry {
	if log == nil {
		return Discard()
	}
	return log
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
