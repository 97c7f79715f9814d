package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

// OpenTelemetry-compatible ID sizes.
const (
	traceIDBytes = 16
	spanIDBytes  = 8
)

// Keys for the request-scoped fields the logger extracts. Provider and
// model are set by the engine once it has resolved the request's route, so
// every log line of a chain carries them.
const (
	TraceIDKey   contextKey = "trace_id"
	SpanIDKey    contextKey = "span_id"
	RequestIDKey contextKey = "request_id"
	ProviderKey  contextKey = "provider"
	ModelKey     contextKey = "model"
)

// WithTraceID returns ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// WithSpanID returns ctx carrying spanID.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, SpanIDKey, spanID)
}

// WithRequestID returns ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithProvider returns ctx carrying the provider name.
func WithProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, ProviderKey, provider)
}

// WithModel returns ctx carrying the model name.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, ModelKey, model)
}

// GetTraceID reads the trace ID, or "" when absent.
func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

// GetSpanID reads the span ID, or "" when absent.
func GetSpanID(ctx context.Context) string {
	return stringValue(ctx, SpanIDKey)
}

// GetRequestID reads the request ID, or "" when absent.
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetProvider reads the provider name, or "" when absent.
func GetProvider(ctx context.Context) string {
	return stringValue(ctx, ProviderKey)
}

// GetModel reads the model name, or "" when absent.
func GetModel(ctx context.Context) string {
	return stringValue(ctx, ModelKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID returns a 32-hex-char OpenTelemetry-style trace ID.
func GenerateTraceID() string {
	return randomHex(traceIDBytes)
}

// GenerateSpanID returns a 16-hex-char OpenTelemetry-style span ID.
func GenerateSpanID() string {
	return randomHex(spanIDBytes)
}

// GenerateRequestID returns a UUID request identifier.
func GenerateRequestID() string {
	return uuid.New().String()
}

func randomHex(n int) string {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand failing is unheard of; fall back to a UUID trimmed
		// to the right width.
		return uuid.New().String()[:2*n]
	}
	return hex.EncodeToString(bytes)
}
