package logging

import "go.uber.org/zap"

// New creates a new zap logger. The environment selects the encoder:
// anything other than "production" gets the development config.
func New(env string) *zap.Logger {
	if env == "production" {
		logger, _ := zap.NewProduction()
		return logger
	}
	logger, _ := zap.NewDevelopment()
	return logger
}
