package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type pingerMock struct {
	err error
}

func (m *pingerMock) Ping(_ context.Context) error {
	return m.err
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestLive_Always200(t *testing.T) {
	t.Parallel()

	h := NewHealthHandler("test-version", Check{Name: "database", Pinger: &pingerMock{err: errors.New("down")}, Critical: true})
	rec := httptest.NewRecorder()
	h.Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp.Status != "ok" || resp.Timestamp.IsZero() {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestReady(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		db     error
		cache  error
		status int
	}{
		{"all up", nil, nil, http.StatusOK},
		{"cache down", nil, errors.New("redis"), http.StatusOK},
		{"database down", errors.New("pg"), nil, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler("v",
				Check{Name: "database", Pinger: &pingerMock{err: tt.db}, Critical: true},
				Check{Name: "cache", Pinger: &pingerMock{err: tt.cache}},
			)
			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestHealth_Components(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		db      error
		cache   error
		status  int
		overall string
	}{
		{"all up", nil, nil, http.StatusOK, "ok"},
		{"cache down", nil, errors.New("redis"), http.StatusOK, "degraded"},
		{"database down", errors.New("pg"), nil, http.StatusServiceUnavailable, "down"},
		{"both down", errors.New("pg"), errors.New("redis"), http.StatusServiceUnavailable, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthHandler("1.2.3",
				Check{Name: "database", Pinger: &pingerMock{err: tt.db}, Critical: true},
				Check{Name: "cache", Pinger: &pingerMock{err: tt.cache}},
			)
			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			resp := decodeHealth(t, rec)
			if resp.Status != tt.overall {
				t.Errorf("expected overall %q, got %q", tt.overall, resp.Status)
			}
			if resp.Version != "1.2.3" {
				t.Errorf("expected version 1.2.3, got %q", resp.Version)
			}
			db := resp.Components["database"]
			if tt.db == nil && (db.Status != "ok" || db.Latency == "") {
				t.Errorf("database component: %+v", db)
			}
			if tt.db != nil && db.Status != "down" {
				t.Errorf("database component: %+v", db)
			}
		})
	}
}
