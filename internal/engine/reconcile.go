package engine

import "tradeflow/internal/domain"

// Action is the order a reconciliation decided to place. A nil *Action means
// the book already matches the target and nothing should be sent.
type Action struct {
	Side     domain.Side
	Quantity int64
}

// Reconcile compares a desired net position against the current one and
// returns the single order that closes the gap.
//
//	desired == current          -> nil (no order)
//	desired > current           -> BUY the difference
//	desired < current           -> SELL the difference
//
// This covers flattening (desired 0 against a long or short book), opening
// from flat, scaling up, scaling down, and crossing through zero in one
// order. The returned quantity is always positive; a zero-quantity action is
// never produced.
func Reconcile(desired, current int64) *Action {
	delta := desired - current
	switch {
	case delta > 0:
		return &Action{Side: domain.SideBuy, Quantity: delta}
	case delta < 0:
		return &Action{Side: domain.SideSell, Quantity: -delta}
	default:
		return nil
	}
}
