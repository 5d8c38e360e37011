package middleware

import (
	"fmt"
	"net/http"

	"github.com/davidbz/repeatguard/internal/observability"
)

// Recover turns a handler panic into a 500 response and an error log.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					observability.FromContext(r.Context()).Error("handler panicked",
						observability.String("path", r.URL.Path),
						observability.Error(fmt.Errorf("%v", rec)))
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
