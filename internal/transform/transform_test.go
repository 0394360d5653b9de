package transform

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"tradeflow/internal/domain"
)

func TestProductTypeRoundTrip(t *testing.T) {
	for _, p := range domain.ProductTypes {
		mapped, err := MapProductType(p)
		if err != nil {
			t.Fatalf("MapProductType(%q) returned error: %v", p, err)
		}
		back, err := ReverseProductType(mapped)
		if err != nil {
			t.Fatalf("ReverseProductType(%q) returned error: %v", mapped, err)
		}
		if back != p {
			t.Errorf("round trip %q -> %q -> %q, want %q", p, mapped, back, p)
		}
	}
}

func TestReverseProductTypeUnmapped(t *testing.T) {
	for _, v := range []string{"MARGIN", "BO", ""} {
		_, err := ReverseProductType(v)
		var me *domain.MappingError
		if !errors.As(err, &me) {
			t.Errorf("ReverseProductType(%q) = %v, want MappingError", v, err)
		}
	}
}

func TestBuildPlaceOrderDefaults(t *testing.T) {
	req := domain.OrderRequest{
		Symbol:   "SBIN-EQ",
		Exchange: "NSE",
		Side:     domain.SideBuy,
		Quantity: 10,
	}

	p, err := BuildPlaceOrder(req, "3045")
	if err != nil {
		t.Fatalf("BuildPlaceOrder returned error: %v", err)
	}

	if p.Variety != "NORMAL" {
		t.Errorf("Variety = %q, want NORMAL", p.Variety)
	}
	if p.OrderType != "MARKET" {
		t.Errorf("OrderType = %q, want MARKET", p.OrderType)
	}
	if p.ProductType != "INTRADAY" {
		t.Errorf("ProductType = %q, want INTRADAY", p.ProductType)
	}
	if p.Duration != "DAY" {
		t.Errorf("Duration = %q, want DAY", p.Duration)
	}
	if p.Price != "0" || p.TriggerPrice != "0" || p.Squareoff != "0" || p.Stoploss != "0" {
		t.Errorf("numeric defaults = %q/%q/%q/%q, want all \"0\"",
			p.Price, p.TriggerPrice, p.Squareoff, p.Stoploss)
	}
	if p.Quantity != "10" {
		t.Errorf("Quantity = %q, want \"10\"", p.Quantity)
	}
	if p.SymbolToken != "3045" {
		t.Errorf("SymbolToken = %q, want \"3045\"", p.SymbolToken)
	}
}

func TestBuildPlaceOrderDeterministic(t *testing.T) {
	req := domain.OrderRequest{
		Symbol:   "INFY-EQ",
		Exchange: "NSE",
		Side:     domain.SideSell,
		Quantity: 5,
		Kind:     domain.OrderKindLimit,
		Price:    decimal.NewFromFloat(1450.55),
	}

	a, err := BuildPlaceOrder(req, "1594")
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	b, err := BuildPlaceOrder(req, "1594")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if a != b {
		t.Errorf("BuildPlaceOrder not deterministic: %+v vs %+v", a, b)
	}
	if a.Price != "1450.55" {
		t.Errorf("Price = %q, want \"1450.55\"", a.Price)
	}
}

func TestBuildPlaceOrderValidation(t *testing.T) {
	base := domain.OrderRequest{
		Symbol:   "SBIN-EQ",
		Exchange: "NSE",
		Side:     domain.SideBuy,
		Quantity: 10,
	}

	cases := []struct {
		name   string
		mutate func(*domain.OrderRequest)
		field  string
	}{
		{"missing symbol", func(r *domain.OrderRequest) { r.Symbol = "" }, "symbol"},
		{"missing exchange", func(r *domain.OrderRequest) { r.Exchange = "" }, "exchange"},
		{"missing side", func(r *domain.OrderRequest) { r.Side = "" }, "side"},
		{"bad side", func(r *domain.OrderRequest) { r.Side = "HOLD" }, "side"},
		{"zero quantity", func(r *domain.OrderRequest) { r.Quantity = 0 }, "quantity"},
		{"negative quantity", func(r *domain.OrderRequest) { r.Quantity = -5 }, "quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := BuildPlaceOrder(req, "3045")
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("BuildPlaceOrder = %v, want ValidationError", err)
			}
			if ve.Field != tc.field {
				t.Errorf("ValidationError.Field = %q, want %q", ve.Field, tc.field)
			}
		})
	}
}

func TestBuildModifyOrderRequiresID(t *testing.T) {
	req := domain.OrderRequest{
		Symbol:   "SBIN-EQ",
		Exchange: "NSE",
		Side:     domain.SideBuy,
		Quantity: 10,
	}
	_, err := BuildModifyOrder(req, "3045")
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "order_id" {
		t.Fatalf("BuildModifyOrder without id = %v, want ValidationError on order_id", err)
	}

	req.OrderID = "230630000123456"
	p, err := BuildModifyOrder(req, "3045")
	if err != nil {
		t.Fatalf("BuildModifyOrder returned error: %v", err)
	}
	if p.OrderID != "230630000123456" {
		t.Errorf("OrderID = %q", p.OrderID)
	}
}
