package middleware

import "net/http"

// writeJSONError emits a minimal error body without involving the
// handler chain, for failures caught before or after it runs.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
