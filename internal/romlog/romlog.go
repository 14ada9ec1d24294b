// Package romlog provides the package-level structured logger shared by
// lz77, sggg, event and dialog. The core codecs never fail on ordinary
// data-dependent conditions; instead they log and keep going, so every
// degraded-output path in this module runs through here rather than
// returning an error.
package romlog

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.Mutex
	log = newDefault()
)

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetLevel adjusts the shared logger's verbosity. Used by cmd/romkit's
// --verbose flag.
func SetLevel(level logrus.Level) {
	mu.Lock()
	defer mu.Unlock()
	log.SetLevel(level)
}

// Fields is a type alias so callers don't need to import logrus directly.
type Fields = logrus.Fields

// Warn logs a structural-corruption or degraded-output condition. The
// core codecs never return an error for these.
func Warn(msg string, fields Fields) {
	mu.Lock()
	entry := log.WithFields(fields)
	mu.Unlock()
	entry.Warn(msg)
}

// Error logs a condition severe enough to note loudly but that still does
// not abort the calling codec (only a handful of cases are truly fatal,
// and those return a Go error instead of calling this).
func Error(msg string, fields Fields) {
	mu.Lock()
	entry := log.WithFields(fields)
	mu.Unlock()
	entry.Error(msg)
}

// Info logs a notable but harmless condition, such as optional metadata
// being absent from an artifact.
func Info(msg string, fields Fields) {
	mu.Lock()
	entry := log.WithFields(fields)
	mu.Unlock()
	entry.Info(msg)
}

// Debug logs fine-grained codec tracing, off by default.
func Debug(msg string, fields Fields) {
	mu.Lock()
	entry := log.WithFields(fields)
	mu.Unlock()
	entry.Debug(msg)
}
