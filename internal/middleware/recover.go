package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"shopapi/internal/handlers/respond"
)

// Recover turns a handler panic into a JSON 500 response. The panic value
// and stack stay in the log; the client only sees the generic envelope.
func Recover(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("handler panicked",
						"path", r.URL.Path,
						"requestId", RequestIDFromContext(r.Context()),
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					respond.Error(w, http.StatusInternalServerError, "Something went wrong")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
