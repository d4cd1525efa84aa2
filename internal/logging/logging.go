// internal/logging/logging.go
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production mode emits JSON at info level;
// debug mode emits console output at debug level for local runs.
// The returned cleanup flushes buffered entries and should be deferred.
func New(service string, debug bool) (*zap.Logger, func()) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		// Config above is static; Build only fails on bad output paths.
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("service", service))

	return logger, func() { _ = logger.Sync() }
}
