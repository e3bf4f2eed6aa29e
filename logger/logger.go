// Package logger provides structured logging using Zap.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base *zap.Logger
	once sync.Once
)

// New builds a logger for the given environment. "production" writes JSON;
// any other environment writes human-readable console lines. Both go to
// stderr. An empty level keeps the environment's default.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// Init initializes the global logger once.
func Init(env, level string) {
	once.Do(func() {
		l, err := New(env, level)
		if err != nil {
			// Fallback to nop logger if initialization fails.
			l = zap.NewNop()
		}
		base = l
	})
}

// Get returns the global logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.Logger {
	Init("development", "")
	return base
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
