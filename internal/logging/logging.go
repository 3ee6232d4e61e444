// Package logging provides the module's shared zap logger singleton.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
	mu         sync.RWMutex
)

// Logger returns the shared logger. Defaults to a no-op logger until
// SetLogger is called; as an internal package, only code inside this module
// can call it.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		mu.Lock()
		if logger == nil {
			logger = zap.NewNop()
		}
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger installs a logger for the whole module. Pass nil to restore the
// no-op default.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
	loggerOnce.Do(func() {})
}

// Debug is true when verbose per-import tracing should be emitted. Set via
// SetDebug; off by default.
var Debug = false

// SetDebug toggles verbose tracing through Debugf, whose only caller is the
// resource sweeper's per-tick summary.
func SetDebug(v bool) {
	Debug = v
}

// Debugf logs at debug level through the sugared logger when Debug is set.
func Debugf(format string, args ...any) {
	if Debug {
		Logger().Sugar().Debugf(format, args...)
	}
}
