// Package logger builds the structured logger shared by the whole process.
package logger

import "go.uber.org/zap"

// New returns a production zap logger. Callers own the Sync call.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
