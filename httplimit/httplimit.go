// Package httplimit bounds the number of HTTP handlers running at once with a
// semaphore.
package httplimit

import (
	"log"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/joshbohde/semaphore"
)

// ErrorResponse is the body written when a request is turned away.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Middleware admits a request once it holds one permit of sem, waiting up to
// wait for it. Requests that get no permit receive 503 Service Unavailable.
// A nil logger uses the standard logger.
func Middleware(sem *semaphore.Semaphore, wait time.Duration, logger *log.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = log.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sem.TryAcquireFor(wait) {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusServiceUnavailable, "BUSY", "too many concurrent requests")
				return
			}

			defer func() {
				if err := sem.Release(1); err != nil {
					logger.Printf("httplimit: %s %s: %v", r.Method, r.URL.Path, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}
