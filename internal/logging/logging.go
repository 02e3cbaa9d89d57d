// Package logging constructs the process-wide zap logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	global *zap.Logger
)

// New builds a logger for the given environment name ("production" or
// "development"). Unrecognized names fall back to production config.
func New(env string) *zap.Logger {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Global returns the process-wide logger, building it on first use.
func Global() *zap.Logger {
	once.Do(func() {
		global = New("production")
	})
	return global
}

// SetGlobal overrides the process-wide logger, for tests and for cmd/ to
// install a development logger when running interactively.
func SetGlobal(l *zap.Logger) {
	global = l
}
