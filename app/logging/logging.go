package logging

import (
	"log"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the application logger. Development mode logs human readable
// console output at debug level; otherwise JSON at the given level.
func New(development bool, level string) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// StdLogger adapts logger for libraries that want a *log.Logger.
func StdLogger(logger *zap.Logger, level zapcore.Level) *log.Logger {
	l, err := zap.NewStdLogAt(logger.WithOptions(zap.AddCallerSkip(1)), level)
	if err != nil {
		return zap.NewStdLog(logger)
	}
	return l
}
