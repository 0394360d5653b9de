// Package metrics exposes Prometheus metrics and a health endpoint for the
// order engine.
package metrics

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the order engine.
type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted *prometheus.CounterVec // labels: side, product
	OrdersRejected  prometheus.Counter
	OrdersFailed    prometheus.Counter
	OrdersModified  prometheus.Counter
	OrdersCancelled prometheus.Counter

	ReconcileActions *prometheus.CounterVec // labels: action=buy|sell|noop

	BulkSquareoffs prometheus.Counter
	BulkCancels    prometheus.Counter
	BulkFailures   prometheus.Counter

	CredCacheHits   prometheus.Counter
	CredCacheMisses prometheus.Counter

	GatewayDuration *prometheus.HistogramVec // labels: endpoint
}

// New registers and returns all engine metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeflow_orders_submitted_total",
			Help: "Orders accepted by the brokerage (by side and product)",
		}, []string{"side", "product"}),
		OrdersRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_orders_rejected_total",
			Help: "Orders the brokerage rejected",
		}),
		OrdersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_orders_failed_total",
			Help: "Orders that failed before reaching the brokerage (validation, transport)",
		}),
		OrdersModified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_orders_modified_total",
			Help: "Successful order modifications",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_orders_cancelled_total",
			Help: "Successful order cancellations",
		}),

		ReconcileActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradeflow_reconcile_actions_total",
			Help: "Smart-order reconciliation outcomes (buy, sell, noop)",
		}, []string{"action"}),

		BulkSquareoffs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_bulk_squareoffs_total",
			Help: "Positions closed by bulk square-off",
		}),
		BulkCancels: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_bulk_cancels_total",
			Help: "Open orders cancelled by bulk cancel",
		}),
		BulkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_bulk_failures_total",
			Help: "Per-item failures inside bulk operations",
		}),

		CredCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_cred_cache_hits_total",
			Help: "Credential lookups answered from the cache",
		}),
		CredCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradeflow_cred_cache_misses_total",
			Help: "Credential lookups that went to the backing store",
		}),

		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradeflow_gateway_request_duration_seconds",
			Help:    "Brokerage API request latency by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}

	m.registry.MustRegister(
		m.OrdersSubmitted,
		m.OrdersRejected,
		m.OrdersFailed,
		m.OrdersModified,
		m.OrdersCancelled,
		m.ReconcileActions,
		m.BulkSquareoffs,
		m.BulkCancels,
		m.BulkFailures,
		m.CredCacheHits,
		m.CredCacheMisses,
		m.GatewayDuration,
	)

	return m
}

// Handler returns the /metrics handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// HealthStatus tracks dependency health for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	StoreOK     bool
	GatewayName string
	LastOrderAt time.Time
	StartedAt   time.Time
}

// NewHealthStatus returns a health status stamped with the start time.
func NewHealthStatus(gatewayName string) *HealthStatus {
	return &HealthStatus{GatewayName: gatewayName, StoreOK: true, StartedAt: time.Now()}
}

func (h *HealthStatus) SetStoreOK(v bool) {
	h.mu.Lock()
	h.StoreOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastOrderAt(t time.Time) {
	h.mu.Lock()
	h.LastOrderAt = t
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.StoreOK {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	lastOrder := ""
	if !h.LastOrderAt.IsZero() {
		lastOrder = h.LastOrderAt.Format(time.RFC3339)
	}

	body := struct {
		Status      string `json:"status"`
		Gateway     string `json:"gateway"`
		StoreOK     bool   `json:"store_ok"`
		LastOrderAt string `json:"last_order_at,omitempty"`
		Uptime      string `json:"uptime"`
	}{
		Status:      status,
		Gateway:     h.GatewayName,
		StoreOK:     h.StoreOK,
		LastOrderAt: lastOrder,
		Uptime:      time.Since(h.StartedAt).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(body)
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server runs an HTTP server exposing /metrics and /healthz, separate from
// the API listener.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

// NewServer creates a metrics and health server on addr.
func NewServer(addr string, m *Metrics, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux},
		log: slog.Default().With("component", "metrics"),
	}
}

// Start launches the server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			s.log.Error("metrics server error", "error", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
