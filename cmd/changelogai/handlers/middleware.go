package handlers

import (
	"net/http"
	"time"

	"github.com/keyz-man/changelogai-app/internal/logging"
	"github.com/keyz-man/changelogai-app/internal/telemetry"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// unmatchedRoute labels requests no pattern matched, keeping metric
// cardinality bounded.
const unmatchedRoute = "unmatched"

// Instrument logs every request and records it on metrics. The route label
// is the matched mux pattern, never the raw path.
func Instrument(next http.Handler, metrics *telemetry.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		duration := time.Since(start)
		metrics.RecordHTTPRequest(route, r.Method, rec.status, duration)

		logging.Info("request served", map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"route":       route,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}
