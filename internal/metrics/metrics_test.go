package metrics

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewRegistersCleanly(t *testing.T) {
	// Each Metrics gets its own registry, so repeated construction (e.g. in
	// tests) must not panic on duplicate registration.
	m1 := New()
	m2 := New()
	if m1 == nil || m2 == nil {
		t.Fatal("New returned nil")
	}

	m1.OrdersSubmitted.WithLabelValues("BUY", "MIS").Inc()
	m1.ReconcileActions.WithLabelValues("noop").Inc()

	rec := httptest.NewRecorder()
	m1.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics handler status = %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	h := NewHealthStatus("simulator")
	h.SetLastOrderAt(time.Now())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 200 {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	var body struct {
		Status  string `json:"status"`
		Gateway string `json:"gateway"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding healthz body: %v", err)
	}
	if body.Status != "healthy" || body.Gateway != "simulator" {
		t.Errorf("healthz body = %+v", body)
	}

	h.SetStoreOK(false)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != 503 {
		t.Errorf("degraded healthz status = %d, want 503", rec.Code)
	}
}
