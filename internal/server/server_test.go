package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testStatus() Status {
	return Status{
		Environment:    "test",
		Realtime:       "open",
		LastEventAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CachedEntities: 7,
	}
}

func TestHealthz(t *testing.T) {
	s := New(0, slog.Default(), testStatus)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestRequestIDReusesInboundHeader(t *testing.T) {
	s := New(0, slog.Default(), testStatus)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-abc-123")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-abc-123" {
		t.Errorf("X-Request-ID = %q, want req-abc-123", got)
	}
}

func TestStatusSnapshot(t *testing.T) {
	s := New(0, slog.Default(), testStatus)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", rec.Code)
	}

	var snap Status
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to decode status body: %v", err)
	}
	if snap.Realtime != "open" {
		t.Errorf("realtime = %q, want open", snap.Realtime)
	}
	if snap.CachedEntities != 7 {
		t.Errorf("cachedEntities = %d, want 7", snap.CachedEntities)
	}
}
