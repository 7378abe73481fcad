package middleware

import (
	"net/http"
	"strings"

	"deskbook/pkg/logger"
)

// ContentTypeValidation rejects body-carrying requests whose media type
// is not application/json before they reach a handler. Body-less writes
// (logout, cancel) pass through untouched.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				if r.ContentLength == 0 {
					break
				}
				mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
				if strings.TrimSpace(mediaType) != "application/json" {
					log.Warn("Invalid Content-Type header",
						"request_id", RequestID(r.Context()),
						"content_type", mediaType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
