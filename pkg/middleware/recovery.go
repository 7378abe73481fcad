package middleware

import (
	"net/http"
	"runtime/debug"

	"deskbook/pkg/logger"
)

// Recovery turns a handler panic into a 500 response instead of tearing
// down the connection, and logs the stack for the request that caused it.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				log.Error("Panic recovered",
					"request_id", RequestID(r.Context()),
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeJSONError(w, http.StatusInternalServerError, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
