// Package observability holds the structured logger and the request-scoped
// context fields (trace, request, provider, model) it stamps on every line.
package observability

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Upper bound of context fields FromContext attaches.
const maxLoggerFieldCapacity = 5

// One process-wide base logger. Loggers do not travel in contexts; only the
// fields do, and FromContext joins the two.
//
//nolint:gochecknoglobals // Singleton logger is a standard pattern
var (
	globalLogger *zap.Logger
	loggerMu     sync.RWMutex
)

// InitLogger builds the production logger and installs it as the process
// base. Called once at startup through the DI container.
func InitLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	loggerMu.Lock()
	globalLogger = logger
	loggerMu.Unlock()

	return logger, nil
}

func getBaseLogger() *zap.Logger {
	loggerMu.RLock()
	logger := globalLogger
	loggerMu.RUnlock()

	if logger == nil {
		// Not initialized (tests, early startup): build one on the spot.
		logger, _ = zap.NewProduction()
	}

	return logger
}

// FromContext returns the base logger annotated with whichever request
// fields ctx carries.
func FromContext(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, maxLoggerFieldCapacity)

	if traceID := GetTraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}

	if spanID := GetSpanID(ctx); spanID != "" {
		fields = append(fields, zap.String("span_id", spanID))
	}

	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if provider := GetProvider(ctx); provider != "" {
		fields = append(fields, zap.String("provider", provider))
	}

	if model := GetModel(ctx); model != "" {
		fields = append(fields, zap.String("model", model))
	}

	return getBaseLogger().With(fields...)
}
