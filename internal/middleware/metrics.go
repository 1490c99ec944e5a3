package middleware

import (
	"net/http"
	"time"

	"github.com/sakif/tradecircle/internal/metrics"
)

// Metrics records duration and count for each request. Wrap it after
// Recoverer so the metrics reflect the status the client actually saw.
// Scrapes of /metrics itself are not recorded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if r.URL.Path == "/metrics" {
			return
		}
		metrics.RecordRequest(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start).Seconds())
	})
}
