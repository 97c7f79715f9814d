package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/lorebind/lorebind/internal/config"
)

// CORS applies the configured cross-origin policy via github.com/rs/cors.
// A nil config disables the policy entirely.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	policy := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})

	return policy.Handler
}
