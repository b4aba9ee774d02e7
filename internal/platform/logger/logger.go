// Package logger constructs the service's zap logger.
package logger

import (
	"go.uber.org/zap"
)

// NewNamed returns a named logger tuned for the given environment:
// human-readable development output for "development", JSON production
// output otherwise.
func NewNamed(env, name string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Named(name), nil
}
