package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	liveness  bool
	readiness bool
	healthy   bool
	status    map[string]string
}

func (m *mockHealthChecker) Liveness() bool {
	return m.liveness
}

func (m *mockHealthChecker) Readiness(ctx context.Context) bool {
	return m.readiness
}

func (m *mockHealthChecker) IsHealthy() bool {
	return m.healthy
}

func (m *mockHealthChecker) GetStatus() map[string]string {
	return m.status
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name       string
		liveness   bool
		wantCode   int
		wantStatus string
	}{
		{"alive", true, http.StatusOK, "alive"},
		{"not alive", false, http.StatusServiceUnavailable, "not alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := LivenessHandler(&mockHealthChecker{liveness: tt.liveness}, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if response.Timestamp == "" {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		readiness  bool
		status     map[string]string
		wantCode   int
		wantStatus string
	}{
		{
			name:       "ready",
			readiness:  true,
			status:     map[string]string{"1": "running", "2": "running"},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "not ready",
			readiness:  false,
			status:     map[string]string{"1": "running", "2": "stopped"},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockHealthChecker{readiness: tt.readiness, status: tt.status}
			handler := ReadinessHandler(checker, testLogger())
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if len(response.Checks) != len(tt.status) {
				t.Errorf("checks = %v, want %v", response.Checks, tt.status)
			}
		})
	}
}
