package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/courtlens/casestatus-api/internal/logging"
)

func TestRequestID(t *testing.T) {
	t.Run("generates an id", func(t *testing.T) {
		var ctxID string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxID = logging.GetRequestID(r.Context())
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

		headerID := rec.Header().Get(RequestIDHeader)
		if headerID == "" {
			t.Fatal("response missing request id header")
		}
		if ctxID != headerID {
			t.Errorf("context id %q != header id %q", ctxID, headerID)
		}
	})

	t.Run("preserves caller-supplied id", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "caller-id-1")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "caller-id-1" {
			t.Errorf("header id = %q, want caller-id-1", got)
		}
	})

	t.Run("ids are unique per request", func(t *testing.T) {
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec1 := httptest.NewRecorder()
		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, httptest.NewRequest("GET", "/", nil))
		handler.ServeHTTP(rec2, httptest.NewRequest("GET", "/", nil))

		id1 := rec1.Header().Get(RequestIDHeader)
		id2 := rec2.Header().Get(RequestIDHeader)
		if id1 == id2 {
			t.Errorf("two requests got the same id %q", id1)
		}
	})
}
