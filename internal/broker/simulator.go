package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"tradeflow/internal/domain"
)

// Compile-time interface check.
var _ Gateway = (*Simulator)(nil)

// Simulator implements Gateway for paper trading and tests. It keeps an
// order book and position book in memory and fills market orders instantly;
// limit and stop orders rest as open / trigger pending.
type Simulator struct {
	mu        sync.Mutex
	nextID    int
	orders    []OrderBookEntry
	trades    []TradeBookEntry
	positions map[string]*NetPosition // key: symbol|exchange|producttype
	holdings  []Holding
}

// NewSimulator creates an empty Simulator.
func NewSimulator() *Simulator {
	return &Simulator{positions: make(map[string]*NetPosition)}
}

// Name returns "simulator".
func (s *Simulator) Name() string { return "simulator" }

func posKey(symbol, exchange, product string) string {
	return symbol + "|" + exchange + "|" + product
}

// SeedPosition installs a position, replacing any existing entry for the
// same symbol/exchange/product. Intended for tests and paper-mode setup.
func (s *Simulator) SeedPosition(p NetPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.positions[posKey(p.TradingSymbol, p.Exchange, p.ProductType)] = &cp
}

// SeedOrder installs an order book entry. Intended for tests.
func (s *Simulator) SeedOrder(o OrderBookEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = append(s.orders, o)
}

// PlaceOrder records the order and simulates execution. Market orders fill
// immediately and move the position book; other kinds rest.
func (s *Simulator) PlaceOrder(_ context.Context, _ domain.Credential, p PlaceOrderPayload) (*domain.OrderOutcome, error) {
	qty, err := strconv.ParseInt(p.Quantity, 10, 64)
	if err != nil || qty <= 0 {
		return &domain.OrderOutcome{Message: "invalid quantity"},
			&domain.BrokerRejection{Op: "placeOrder", Message: "invalid quantity"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := fmt.Sprintf("SIM-%06d", s.nextID)

	entry := OrderBookEntry{
		OrderID:       id,
		TradingSymbol: p.TradingSymbol,
		Exchange:      p.Exchange,
		ProductType:   p.ProductType,
		OrderType:     p.OrderType,
		Quantity:      p.Quantity,
		Price:         p.Price,
	}

	switch p.OrderType {
	case string(domain.OrderKindMarket):
		entry.Status = string(domain.OrderStatusComplete)
		s.fill(p, qty)
		s.trades = append(s.trades, TradeBookEntry{
			OrderID:       id,
			TradingSymbol: p.TradingSymbol,
			Exchange:      p.Exchange,
			ProductType:   p.ProductType,
			FillPrice:     p.Price,
			FillSize:      p.Quantity,
		})
	case string(domain.OrderKindStop), string(domain.OrderKindStopLimit):
		entry.Status = string(domain.OrderStatusTriggerPending)
	default:
		entry.Status = string(domain.OrderStatusOpen)
	}
	s.orders = append(s.orders, entry)

	return &domain.OrderOutcome{Submitted: true, OrderID: id}, nil
}

// fill applies a completed order to the position book. Must be called with
// mu held.
func (s *Simulator) fill(p PlaceOrderPayload, qty int64) {
	delta := qty
	if p.TransactionType == string(domain.SideSell) {
		delta = -qty
	}
	key := posKey(p.TradingSymbol, p.Exchange, p.ProductType)
	pos, ok := s.positions[key]
	if !ok {
		pos = &NetPosition{
			TradingSymbol: p.TradingSymbol,
			Exchange:      p.Exchange,
			ProductType:   p.ProductType,
			NetQty:        "0",
		}
		s.positions[key] = pos
	}
	net, _ := strconv.ParseInt(pos.NetQty, 10, 64)
	pos.NetQty = strconv.FormatInt(net+delta, 10)
}

// ModifyOrder updates a resting order's price and quantity.
func (s *Simulator) ModifyOrder(_ context.Context, _ domain.Credential, p ModifyOrderPayload) (*domain.OrderOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].OrderID != p.OrderID {
			continue
		}
		if !domain.OrderStatus(s.orders[i].Status).IsOpen() {
			return &domain.OrderOutcome{Message: "order not open"},
				&domain.BrokerRejection{Op: "modifyOrder", Message: "order not open"}
		}
		s.orders[i].Price = p.Price
		s.orders[i].Quantity = p.Quantity
		return &domain.OrderOutcome{Submitted: true, OrderID: p.OrderID}, nil
	}
	return &domain.OrderOutcome{Message: "order not found"},
		&domain.BrokerRejection{Op: "modifyOrder", Message: "order not found"}
}

// CancelOrder cancels a resting order.
func (s *Simulator) CancelOrder(_ context.Context, _ domain.Credential, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].OrderID != orderID {
			continue
		}
		if !domain.OrderStatus(s.orders[i].Status).IsOpen() {
			return &domain.BrokerRejection{Op: "cancelOrder", Message: "order not open"}
		}
		s.orders[i].Status = string(domain.OrderStatusCancelled)
		return nil
	}
	return &domain.BrokerRejection{Op: "cancelOrder", Message: "order not found"}
}

// OrderBook returns a copy of all recorded orders.
func (s *Simulator) OrderBook(_ context.Context, _ domain.Credential) ([]OrderBookEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]OrderBookEntry, len(s.orders))
	copy(out, s.orders)
	return out, nil
}

// TradeBook returns a copy of all recorded fills.
func (s *Simulator) TradeBook(_ context.Context, _ domain.Credential) ([]TradeBookEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TradeBookEntry, len(s.trades))
	copy(out, s.trades)
	return out, nil
}

// Positions returns a copy of the position book.
func (s *Simulator) Positions(_ context.Context, _ domain.Credential) ([]NetPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []NetPosition
	for _, p := range s.positions {
		out = append(out, *p)
	}
	return out, nil
}

// Holdings returns the seeded holdings.
func (s *Simulator) Holdings(_ context.Context, _ domain.Credential) ([]Holding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Holding, len(s.holdings))
	copy(out, s.holdings)
	return out, nil
}
