// Package logger builds the service's structured logger.
package logger

import "go.uber.org/zap"

// New returns a development logger unless env is "production".
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}
