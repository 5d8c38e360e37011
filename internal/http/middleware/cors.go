package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/repeatguard/internal/config"
)

// CORS applies the configured cross-origin policy. The trace and request id headers set
// by Trace are exposed to browser clients.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		// Return no-op middleware if config is nil.
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		ExposedHeaders:   []string{TraceIDHeader, RequestIDHeader},
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
