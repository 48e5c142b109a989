// Package mw contains HTTP middleware for the case-status service.
package mw

import (
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/courtlens/casestatus-api/internal/logging"
)

// RequestIDHeader is echoed on every response so callers can correlate
// server logs with their own.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns each request a ULID, unless the caller supplied one,
// and threads it through the logging context and the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}
		ctx := logging.WithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
