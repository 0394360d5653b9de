package broker

import (
	"context"
	"errors"
	"testing"

	"tradeflow/internal/domain"
)

func TestSimulatorMarketOrderFills(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()

	outcome, err := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", Exchange: "NSE", ProductType: "INTRADAY",
		TransactionType: "BUY", OrderType: "MARKET", Quantity: "100", Price: "0",
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !outcome.Submitted || outcome.OrderID == "" {
		t.Fatalf("outcome = %+v", outcome)
	}

	positions, err := sim.Positions(ctx, domain.Credential{})
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	if len(positions) != 1 || positions[0].NetQty != "100" {
		t.Errorf("positions = %+v, want net 100", positions)
	}

	// An opposing fill nets out.
	sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", Exchange: "NSE", ProductType: "INTRADAY",
		TransactionType: "SELL", OrderType: "MARKET", Quantity: "40", Price: "0",
	})
	positions, _ = sim.Positions(ctx, domain.Credential{})
	if positions[0].NetQty != "60" {
		t.Errorf("net = %s, want 60", positions[0].NetQty)
	}
}

func TestSimulatorRestingOrders(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()

	limit, _ := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", TransactionType: "BUY", OrderType: "LIMIT", Quantity: "10", Price: "800",
	})
	stop, _ := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", TransactionType: "SELL", OrderType: "SL", Quantity: "10", Price: "790",
	})

	book, err := sim.OrderBook(ctx, domain.Credential{})
	if err != nil {
		t.Fatalf("OrderBook: %v", err)
	}
	status := map[string]string{}
	for _, o := range book {
		status[o.OrderID] = o.Status
	}
	if status[limit.OrderID] != "open" {
		t.Errorf("limit order status = %q, want open", status[limit.OrderID])
	}
	if status[stop.OrderID] != "trigger pending" {
		t.Errorf("stop order status = %q, want trigger pending", status[stop.OrderID])
	}

	// Resting orders never touch the position book.
	positions, _ := sim.Positions(ctx, domain.Credential{})
	if len(positions) != 0 {
		t.Errorf("positions = %+v, want none", positions)
	}
}

func TestSimulatorCancelLifecycle(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()

	limit, _ := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", TransactionType: "BUY", OrderType: "LIMIT", Quantity: "10", Price: "800",
	})
	if err := sim.CancelOrder(ctx, domain.Credential{}, limit.OrderID); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}

	// A second cancel, and cancels of filled orders, are rejections.
	err := sim.CancelOrder(ctx, domain.Credential{}, limit.OrderID)
	var rej *domain.BrokerRejection
	if !errors.As(err, &rej) {
		t.Errorf("re-cancel = %v, want BrokerRejection", err)
	}

	market, _ := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", ProductType: "INTRADAY", TransactionType: "BUY",
		OrderType: "MARKET", Quantity: "5", Price: "0",
	})
	if err := sim.CancelOrder(ctx, domain.Credential{}, market.OrderID); !errors.As(err, &rej) {
		t.Errorf("cancel filled = %v, want BrokerRejection", err)
	}
}

func TestSimulatorModify(t *testing.T) {
	ctx := context.Background()
	sim := NewSimulator()

	limit, _ := sim.PlaceOrder(ctx, domain.Credential{}, PlaceOrderPayload{
		TradingSymbol: "SBIN-EQ", TransactionType: "BUY", OrderType: "LIMIT", Quantity: "10", Price: "800",
	})

	out, err := sim.ModifyOrder(ctx, domain.Credential{}, ModifyOrderPayload{
		OrderID: limit.OrderID, Quantity: "20", Price: "805",
	})
	if err != nil {
		t.Fatalf("ModifyOrder: %v", err)
	}
	if !out.Submitted {
		t.Errorf("outcome = %+v", out)
	}

	book, _ := sim.OrderBook(ctx, domain.Credential{})
	if book[0].Quantity != "20" || book[0].Price != "805" {
		t.Errorf("order after modify = %+v", book[0])
	}

	var rej *domain.BrokerRejection
	if _, err := sim.ModifyOrder(ctx, domain.Credential{}, ModifyOrderPayload{OrderID: "missing"}); !errors.As(err, &rej) {
		t.Errorf("modify missing = %v, want BrokerRejection", err)
	}
}
