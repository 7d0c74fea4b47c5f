package common

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerContextKey string

const (
	loggerContextKeyVal       = loggerContextKey("logrus.FieldLogger")
	outputLoggerContextKeyVal = loggerContextKey("output.FieldLogger")
)

// Logger returns the diagnostic logger for current context
func Logger(ctx context.Context) logrus.FieldLogger {
	return loggerFrom(ctx, loggerContextKeyVal)
}

// OutputLogger returns the logger that receives program output lines.
// It falls back to the diagnostic logger.
func OutputLogger(ctx context.Context) logrus.FieldLogger {
	if val, ok := ctx.Value(outputLoggerContextKeyVal).(logrus.FieldLogger); ok {
		return val
	}
	return Logger(ctx)
}

func loggerFrom(ctx context.Context, key loggerContextKey) logrus.FieldLogger {
	val := ctx.Value(key)
	if val != nil {
		if logger, ok := val.(logrus.FieldLogger); ok {
			return logger
		}
	}
	return logrus.StandardLogger()
}

// WithLogger adds a value to the context for the logger
func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerContextKeyVal, logger)
}

// WithOutputLogger adds the program output logger to the context
func WithOutputLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, outputLoggerContextKeyVal, logger)
}
