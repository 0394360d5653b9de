package engine

import (
	"context"
	"strconv"
	"sync"

	"tradeflow/internal/broker"
	"tradeflow/internal/domain"
	"tradeflow/internal/transform"
)

// BulkFailure records one item a bulk operation could not process. The rest
// of the batch proceeds regardless.
type BulkFailure struct {
	Symbol  string `json:"symbol,omitempty"`
	OrderID string `json:"order_id,omitempty"`
	Reason  string `json:"reason"`
}

// ClosedPosition records one position a square-off closed.
type ClosedPosition struct {
	Symbol   string             `json:"symbol"`
	Exchange string             `json:"exchange"`
	Product  domain.ProductType `json:"product"`
	Side     domain.Side        `json:"side"`
	Quantity int64              `json:"quantity"`
	OrderID  string             `json:"order_id,omitempty"`
}

// SquareoffReport summarizes a SquareoffAll run.
type SquareoffReport struct {
	Closed []ClosedPosition `json:"closed"`
	Failed []BulkFailure    `json:"failed"`
}

// CancelReport summarizes a CancelAll run.
type CancelReport struct {
	Cancelled []string      `json:"cancelled"`
	Failed    []BulkFailure `json:"failed"`
}

// SquareoffAll closes every open position for the principal with opposing
// market orders. The position book must be fetched successfully before any
// order goes out; a fetch failure aborts the whole run with a
// *domain.PositionUnavailableError. Per-position failures (unmappable
// product, rejection) are collected, not fatal.
func (e *Engine) SquareoffAll(ctx context.Context, principal string) (*SquareoffReport, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	positions, err := e.gateway.Positions(ctx, cred)
	if err != nil {
		return nil, &domain.PositionUnavailableError{Err: err}
	}

	report := &SquareoffReport{}

	// A confirmed-empty book means nothing to close, distinct from the fetch
	// failure above.
	var open []broker.NetPosition
	for _, p := range positions {
		if p.NetQty != "" && p.NetQty != "0" {
			open = append(open, p)
		}
	}
	if len(open) == 0 {
		e.log.Info("squareoff: no open positions", "principal", cred.Principal)
		return report, nil
	}

	var mu sync.Mutex
	e.forEach(ctx, len(open), func(i int) {
		p := open[i]

		fail := func(reason string) {
			mu.Lock()
			report.Failed = append(report.Failed, BulkFailure{Symbol: p.TradingSymbol, Reason: reason})
			mu.Unlock()
			if e.metrics != nil {
				e.metrics.BulkFailures.Inc()
			}
		}

		qty, err := strconv.ParseInt(p.NetQty, 10, 64)
		if err != nil || qty == 0 {
			fail("unparseable net quantity " + strconv.Quote(p.NetQty))
			return
		}
		product, err := transform.ReverseProductType(p.ProductType)
		if err != nil {
			// Never guess the product bucket: skip and report.
			fail(err.Error())
			return
		}

		side := domain.SideSell
		if qty < 0 {
			side = domain.SideBuy
			qty = -qty
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				fail(err.Error())
				return
			}
		}
		outcome, err := e.submit(ctx, cred, domain.OrderRequest{
			Symbol:   p.TradingSymbol,
			Exchange: p.Exchange,
			Side:     side,
			Quantity: qty,
			Product:  product,
			Strategy: "squareoff",
		})
		if err != nil {
			fail(err.Error())
			return
		}

		mu.Lock()
		report.Closed = append(report.Closed, ClosedPosition{
			Symbol:   p.TradingSymbol,
			Exchange: p.Exchange,
			Product:  product,
			Side:     side,
			Quantity: qty,
			OrderID:  outcome.OrderID,
		})
		mu.Unlock()
		if e.metrics != nil {
			e.metrics.BulkSquareoffs.Inc()
		}
	})

	e.log.Info("squareoff complete",
		"principal", cred.Principal, "closed", len(report.Closed), "failed", len(report.Failed))
	return report, nil
}

// CancelAll cancels every order of the principal still open or pending
// trigger. Orders in terminal states are left alone. Per-order failures are
// collected, not fatal.
func (e *Engine) CancelAll(ctx context.Context, principal string) (*CancelReport, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	book, err := e.gateway.OrderBook(ctx, cred)
	if err != nil {
		return nil, err
	}

	var open []broker.OrderBookEntry
	for _, o := range book {
		if domain.OrderStatus(o.Status).IsOpen() {
			open = append(open, o)
		}
	}

	report := &CancelReport{}
	if len(open) == 0 {
		e.log.Info("cancel-all: no open orders", "principal", cred.Principal)
		return report, nil
	}

	var mu sync.Mutex
	e.forEach(ctx, len(open), func(i int) {
		o := open[i]

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				mu.Lock()
				report.Failed = append(report.Failed, BulkFailure{OrderID: o.OrderID, Reason: err.Error()})
				mu.Unlock()
				return
			}
		}
		if err := e.gateway.CancelOrder(ctx, cred, o.OrderID); err != nil {
			mu.Lock()
			report.Failed = append(report.Failed, BulkFailure{OrderID: o.OrderID, Symbol: o.TradingSymbol, Reason: err.Error()})
			mu.Unlock()
			if e.metrics != nil {
				e.metrics.BulkFailures.Inc()
			}
			return
		}

		mu.Lock()
		report.Cancelled = append(report.Cancelled, o.OrderID)
		mu.Unlock()
		if e.metrics != nil {
			e.metrics.BulkCancels.Inc()
		}
	})

	e.log.Info("cancel-all complete",
		"principal", cred.Principal, "cancelled", len(report.Cancelled), "failed", len(report.Failed))
	return report, nil
}

// forEach runs fn over indices [0, n) using the configured bulk parallelism.
// Remaining items are skipped once ctx is cancelled.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int)) {
	workers := e.maxParallel
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
}
