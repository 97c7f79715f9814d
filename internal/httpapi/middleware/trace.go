package middleware

import (
	"net/http"

	"github.com/lorebind/lorebind/internal/observability"
)

// Trace stamps every request with fresh trace, span and request IDs, echoes
// them back as response headers, and logs the request start. Downstream
// loggers pick the IDs up from the context.
func Trace() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := observability.GenerateTraceID()
			requestID := observability.GenerateRequestID()

			ctx := observability.WithTraceID(r.Context(), traceID)
			ctx = observability.WithSpanID(ctx, observability.GenerateSpanID())
			ctx = observability.WithRequestID(ctx, requestID)

			w.Header().Set("X-Trace-Id", traceID)
			w.Header().Set("X-Request-Id", requestID)

			observability.FromContext(ctx).Info("request started",
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("remote_addr", r.RemoteAddr),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
