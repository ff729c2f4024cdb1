// Package logging constructs the daemon's structured logger.
package logging

import "go.uber.org/zap"

// New builds a production logger, or a development logger (human-readable,
// debug level) when debug is true.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		return cfg.Build()
	}
	return zap.NewProduction()
}
