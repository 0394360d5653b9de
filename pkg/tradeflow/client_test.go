package tradeflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientPlaceOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/orders" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Principal"); got != "alice" {
			t.Errorf("X-Principal = %q, want alice", got)
		}

		var order Order
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			t.Fatalf("decoding order: %v", err)
		}
		if order.Symbol != "SBIN-EQ" || order.Quantity != 100 {
			t.Errorf("order = %+v", order)
		}

		json.NewEncoder(w).Encode(Outcome{Submitted: true, OrderID: "X-001"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice")
	out, err := c.PlaceOrder(context.Background(), Order{
		Symbol: "SBIN-EQ", Exchange: "NSE", Side: "BUY", Quantity: 100,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !out.Submitted || out.OrderID != "X-001" {
		t.Errorf("outcome = %+v", out)
	}
}

func TestClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "credential revoked"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bob")
	_, err := c.PlaceOrder(context.Background(), Order{Symbol: "SBIN-EQ"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "credential revoked" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClientPositions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/positions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Position{
			{Symbol: "SBIN-EQ", Exchange: "NSE", Product: "INTRADAY", NetQty: "100"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	positions, err := c.Positions(context.Background())
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 1 || positions[0].NetQty != "100" {
		t.Errorf("positions = %+v", positions)
	}
}
