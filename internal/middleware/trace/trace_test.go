package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddleware_GeneratesAndPropagatesID(t *testing.T) {
	m := NewMiddleware()
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.HasPrefix(seen, "req_") || len(seen) != len("req_")+36 {
		t.Errorf("unexpected request id %q", seen)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header %q, want %q", got, seen)
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 1 || metrics.ServerErrors != 1 {
		t.Errorf("unexpected metrics %+v", metrics)
	}
}

func TestMiddleware_ReusesIncomingID(t *testing.T) {
	h := NewMiddleware().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r) != "upstream-42" {
			t.Errorf("RequestID = %q", RequestID(r))
		}
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "upstream-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	long := httptest.NewRequest(http.MethodGet, "/", nil)
	long.Header.Set(HeaderRequestID, strings.Repeat("x", 500))
	rec := httptest.NewRecorder()
	NewMiddleware().Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, long)
	if !strings.HasPrefix(rec.Header().Get(HeaderRequestID), "req_") {
		t.Errorf("oversized incoming IDs should be replaced")
	}
}
