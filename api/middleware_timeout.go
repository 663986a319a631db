package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TimeoutMiddleware adds request timeout to prevent long-running requests
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			r = r.WithContext(ctx)

			// buffered so a handler finishing after the deadline does not leak
			done := make(chan bool, 1)
			go func() {
				// a panicking handler must not take the process down with it
				defer func() {
					if rec := recover(); rec != nil {
						zap.S().Errorw("panic in request handler",
							"path", r.URL.Path,
							"method", r.Method,
							"panic", rec)
						w.WriteHeader(http.StatusInternalServerError)
						w.Write([]byte(`{"error": "internal server error"}`))
					}
					done <- true
				}()
				next.ServeHTTP(w, r)
			}()

			select {
			case <-done:
				// request completed
			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					zap.S().Warnw("Request timeout",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout)
					w.WriteHeader(http.StatusRequestTimeout)
					w.Write([]byte(`{"error": "Request timeout", "message": "The request took too long to process"}`))
				}
			}
		})
	}
}
