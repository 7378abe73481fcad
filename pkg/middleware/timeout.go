package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// deadlineWriter gates all writes behind a mutex so the handler
// goroutine cannot race the timeout response. Once the deadline fires,
// late handler writes are swallowed.
type deadlineWriter struct {
	http.ResponseWriter

	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.timedOut || dw.written {
		return
	}
	dw.written = true
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	dw.written = true
	return dw.ResponseWriter.Write(b)
}

// expire marks the writer timed out. It reports whether the handler had
// already produced output, in which case no timeout body may be sent.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	dw.timedOut = true
	return dw.written
}

// RequestTimeout bounds handler execution. The handler runs in its own
// goroutine; if the deadline wins, the client gets a 503 and whatever
// the handler writes afterwards is discarded.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})

			go func() {
				defer close(done)
				next.ServeHTTP(dw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if !dw.expire() {
					writeJSONError(w, http.StatusServiceUnavailable, "Request timeout")
				}
			}
		})
	}
}
