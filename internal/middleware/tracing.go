package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/evend-recon/internal/logging"
)

const traceIDHeader = "X-Request-ID"

// maxTraceIDLen bounds a caller-supplied trace ID before it reaches logs.
const maxTraceIDLen = 128

// Tracing adopts the caller's X-Request-ID, or mints one, and echoes it on
// the response. The ID rides the context through logging.WithTraceID and
// becomes the run_id of any reconciliation the request starts.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(traceIDHeader)
		if !validTraceID(traceID) {
			traceID = uuid.NewString()
		}

		w.Header().Set(traceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

// validTraceID accepts non-empty printable ASCII without spaces.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
