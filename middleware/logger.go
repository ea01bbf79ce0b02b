package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"lyrics-resolver-go/logcolors"
	"lyrics-resolver-go/stats"
)

// ResponseRecorder wraps an http.ResponseWriter to capture the status
// code and body size for logging.
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder creates a recorder with a default 200 status.
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(statusCode int) {
	r.StatusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

// getStatusColor returns the ANSI color for a status code class.
func getStatusColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return logcolors.Green
	case statusCode >= 300 && statusCode < 400:
		return logcolors.Cyan
	case statusCode >= 400 && statusCode < 500:
		return logcolors.Yellow
	case statusCode >= 500:
		return logcolors.Red
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs every request with method, path, status and
// duration, and feeds status and timing into the stats counters.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		stats.Get().RecordRequest(r.URL.Path)
		stats.Get().RecordStatusCode(rec.StatusCode)
		stats.Get().RecordResponseTime(duration)

		log.Infof("%s %s %s %s%d%s %dB %v from %s",
			logcolors.LogHTTP,
			r.Method,
			r.URL.Path,
			getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset,
			rec.BodySize,
			duration,
			r.RemoteAddr,
		)
	})
}
