// Package broker defines the Gateway interface to the brokerage's
// order-management REST API and provides the production REST adapter plus an
// in-memory simulator for paper trading and tests.
package broker

import (
	"context"

	"tradeflow/internal/domain"
)

// Gateway abstracts the broker's order-management operations. Every call is
// a single logical broker operation authorized by the supplied credential;
// the gateway never reaches into ambient state to find auth material.
//
// Write operations (place, modify, cancel) are never retried internally —
// resubmitting a verbatim place call risks a duplicate order. Idempotent
// reads may be retried by the implementation.
type Gateway interface {
	// Name returns the gateway identifier (e.g. "rest", "simulator").
	Name() string

	// PlaceOrder submits an order. On broker rejection the returned outcome
	// carries the broker's message and the error is a *domain.BrokerRejection.
	PlaceOrder(ctx context.Context, cred domain.Credential, p PlaceOrderPayload) (*domain.OrderOutcome, error)

	// ModifyOrder amends an open order identified by p.OrderID.
	ModifyOrder(ctx context.Context, cred domain.Credential, p ModifyOrderPayload) (*domain.OrderOutcome, error)

	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, cred domain.Credential, orderID string) error

	// OrderBook returns all of today's orders.
	OrderBook(ctx context.Context, cred domain.Credential) ([]OrderBookEntry, error)

	// TradeBook returns all of today's fills.
	TradeBook(ctx context.Context, cred domain.Credential) ([]TradeBookEntry, error)

	// Positions returns the current net positions. A nil slice with a nil
	// error means the broker confirmed there are no open positions.
	Positions(ctx context.Context, cred domain.Credential) ([]NetPosition, error)

	// Holdings returns the demat holdings.
	Holdings(ctx context.Context, cred domain.Credential) ([]Holding, error)
}
