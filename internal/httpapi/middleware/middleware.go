package middleware

import (
	"net/http"

	"github.com/lorebind/lorebind/internal/config"
)

// Middleware wraps an http.Handler with extra behavior; compose with Chain.
type Middleware func(http.Handler) http.Handler

// Chain folds several middlewares into one. The first argument ends up as
// the outermost wrapper, so it runs first on every request.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// BuildMiddlewareChain is the production chain: CORS first so preflights
// never reach tracing, then trace-ID injection.
func BuildMiddlewareChain(corsConfig *config.CORSConfig) Middleware {
	return Chain(
		CORS(corsConfig),
		Trace(),
	)
}
