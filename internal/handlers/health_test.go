package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthz(t *testing.T) {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Second)
	h := NewHealthHandlers(
		WithHealthBuildInfo(BuildInfo{Version: "1.2.0", Environment: "prod", StartedAt: start}),
		WithHealthClock(func() time.Time { return now }),
	)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.Healthz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "1.2.0" || body["environment"] != "prod" {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["uptime"] != "30s" {
		t.Fatalf("uptime = %v, want 30s", body["uptime"])
	}
}

func TestReadyzSuccess(t *testing.T) {
	h := NewHealthHandlers(WithHealthRepository(&stubHealthRepository{}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.Readyz(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Status != "ok" || body.Checks["firestore"].Status != "ok" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestReadyzFailure(t *testing.T) {
	h := NewHealthHandlers(WithHealthRepository(&stubHealthRepository{err: errors.New("deadline exceeded")}))

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := httptest.NewRecorder()
	h.Readyz(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var body struct {
		Status string `json:"status"`
		Checks map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Status != "degraded" {
		t.Fatalf("status = %q, want degraded", body.Status)
	}
	if body.Checks["firestore"].Error != "deadline exceeded" {
		t.Fatalf("unexpected checks: %+v", body.Checks)
	}
}
