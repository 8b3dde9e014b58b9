// Package log builds the zap loggers handed to every collectorkit component.
// Collectors construct one logger at startup and pass it down explicitly;
// there is no package-level singleton.
package log

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// muteLevel sits above every real zap level so nothing passes while muted.
const muteLevel = zapcore.FatalLevel + 1

// Logger wraps a zap logger with a runtime-adjustable level and a mute
// switch. Muting drops every line until Unmute restores the prior level.
type Logger struct {
	*zap.Logger

	mu       sync.Mutex
	level    zap.AtomicLevel
	restore  zapcore.Level
	muted    bool
}

// New creates a JSON logger at the given level ("debug", "info", "warn",
// "error").
func New(level string) (*Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	atomic := zap.NewAtomicLevelAt(parsed)
	cfg := zap.NewProductionConfig()
	cfg.Level = atomic

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{Logger: logger, level: atomic, restore: parsed}, nil
}

// Nop returns a logger that discards everything. Intended for tests and for
// callers that opt out of logging.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop(), level: zap.NewAtomicLevel()}
}

// SetLevel changes the active level.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.restore = level
	if !l.muted {
		l.level.SetLevel(level)
	}
}

// Mute suppresses all output until Unmute is called.
func (l *Logger) Mute() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.muted {
		return
	}
	l.muted = true
	l.level.SetLevel(muteLevel)
}

// Unmute restores the level active before Mute.
func (l *Logger) Unmute() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.muted {
		return
	}
	l.muted = false
	l.level.SetLevel(l.restore)
}

// Muted reports whether the logger is currently muted.
func (l *Logger) Muted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.muted
}
