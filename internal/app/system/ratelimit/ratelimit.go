// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// Writes limits mutating requests to limit per window per client IP.
// GET, HEAD and OPTIONS pass through uncounted. Requests over the limit get
// a 429 with a JSON error body; httprate sets the X-RateLimit-* and
// Retry-After headers.
func Writes(limit int, window time.Duration) func(http.Handler) http.Handler {
	limited := httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(tooManyRequests),
	)
	return func(next http.Handler) http.Handler {
		counted := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				counted.ServeHTTP(w, r)
			}
		})
	}
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
}
