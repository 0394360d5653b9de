// Package engine coordinates order submission, position reconciliation, and
// bulk operations on top of a broker gateway.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tradeflow/internal/broker"
	"tradeflow/internal/creds"
	"tradeflow/internal/domain"
	"tradeflow/internal/journal"
	"tradeflow/internal/metrics"
	"tradeflow/internal/symbols"
	"tradeflow/internal/transform"
	"tradeflow/internal/util"
)

// Engine orchestrates the order lifecycle: credential resolution, symbol
// resolution, payload construction, gateway submission, journalling, and
// metrics. It is safe for concurrent use.
type Engine struct {
	gateway broker.Gateway
	creds   *creds.Resolver
	symbols symbols.Resolver

	journal *journal.Writer
	metrics *metrics.Metrics

	locks *keyedLocks
	log   *slog.Logger

	// Bulk operation limits.
	maxParallel int
	limiter     *util.RateLimiter
}

// New creates an Engine over the given gateway, credential resolver, and
// symbol resolver. Journal, metrics, and bulk limits are wired separately.
func New(gw broker.Gateway, cr *creds.Resolver, sym symbols.Resolver) *Engine {
	return &Engine{
		gateway:     gw,
		creds:       cr,
		symbols:     sym,
		locks:       newKeyedLocks(),
		log:         slog.Default().With("component", "engine"),
		maxParallel: 1,
	}
}

// SetJournal wires the order-outcome journal. A nil journal disables
// journalling.
func (e *Engine) SetJournal(w *journal.Writer) { e.journal = w }

// SetMetrics wires Prometheus metrics. A nil Metrics disables instrumentation.
func (e *Engine) SetMetrics(m *metrics.Metrics) { e.metrics = m }

// SetBulkLimits configures bulk-operation parallelism and the shared rate
// limiter. maxParallel <= 1 keeps bulk operations sequential.
func (e *Engine) SetBulkLimits(maxParallel int, limiter *util.RateLimiter) {
	if maxParallel > 0 {
		e.maxParallel = maxParallel
	}
	e.limiter = limiter
}

// GatewayName returns the identifier of the wired gateway.
func (e *Engine) GatewayName() string { return e.gateway.Name() }

// ---------------------------------------------------------------------------
// Order operations
// ---------------------------------------------------------------------------

// PlaceOrder submits one order on behalf of principal. The returned outcome
// is non-nil whenever the broker produced a response, including rejections.
func (e *Engine) PlaceOrder(ctx context.Context, principal string, req domain.OrderRequest) (*domain.OrderOutcome, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, cred, req)
}

// ModifyOrder amends an open order. req.OrderID identifies the order being
// amended.
func (e *Engine) ModifyOrder(ctx context.Context, principal string, req domain.OrderRequest) (*domain.OrderOutcome, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	token, err := e.symbols.Resolve(ctx, req.Symbol, req.Exchange)
	if err != nil {
		e.countFailed()
		return nil, err
	}
	payload, err := transform.BuildModifyOrder(req, token)
	if err != nil {
		e.countFailed()
		return nil, err
	}

	start := time.Now()
	outcome, err := e.gateway.ModifyOrder(ctx, cred, payload)
	e.observeGateway("modifyOrder", start)
	if err != nil {
		var rej *domain.BrokerRejection
		if errors.As(err, &rej) {
			if e.metrics != nil {
				e.metrics.OrdersRejected.Inc()
			}
			return outcome, err
		}
		e.countFailed()
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.OrdersModified.Inc()
	}
	e.log.Info("order modified",
		"principal", cred.Principal, "order_id", req.OrderID, "symbol", req.Symbol)
	return outcome, nil
}

// CancelOrder requests cancellation of an open order by its broker ID.
func (e *Engine) CancelOrder(ctx context.Context, principal, orderID string) error {
	if orderID == "" {
		return &domain.ValidationError{Field: "order_id", Msg: "required"}
	}
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return err
	}

	start := time.Now()
	err = e.gateway.CancelOrder(ctx, cred, orderID)
	e.observeGateway("cancelOrder", start)
	if err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.OrdersCancelled.Inc()
	}
	e.log.Info("order cancelled", "principal", cred.Principal, "order_id", orderID)
	return nil
}

// PlaceSmartOrder moves the principal's exposure in target's symbol to
// DesiredSize. The current position is always fetched fresh from the broker
// inside a per-position lock; if the fetch fails, no order is placed and a
// *domain.PositionUnavailableError propagates.
func (e *Engine) PlaceSmartOrder(ctx context.Context, principal string, target domain.TargetPosition) (*domain.OrderOutcome, error) {
	if target.Product == "" {
		target.Product = domain.ProductIntraday
	}
	brokerProduct, err := transform.MapProductType(target.Product)
	if err != nil {
		return nil, err
	}

	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}

	key := strings.Join([]string{cred.Principal, target.Symbol, target.Exchange, string(target.Product)}, "|")
	unlock := e.locks.lock(key)
	defer unlock()

	current, err := e.currentNetQty(ctx, cred, target.Symbol, target.Exchange, brokerProduct)
	if err != nil {
		return nil, &domain.PositionUnavailableError{Err: err}
	}

	action := Reconcile(target.DesiredSize, current)
	if action == nil {
		if target.DesiredSize == 0 && current == 0 && target.FallbackQty > 0 {
			// Both sides flat: place the caller's explicit fallback order.
			return e.submit(ctx, cred, domain.OrderRequest{
				Symbol:   target.Symbol,
				Exchange: target.Exchange,
				Side:     target.FallbackSide,
				Quantity: target.FallbackQty,
				Product:  target.Product,
				Strategy: target.Strategy,
			})
		}
		e.countReconcile("noop")
		e.log.Info("position already at target",
			"principal", cred.Principal, "symbol", target.Symbol, "desired", target.DesiredSize)
		return &domain.OrderOutcome{Submitted: false, Message: "position already at target"}, nil
	}

	e.countReconcile(strings.ToLower(string(action.Side)))
	e.log.Info("reconciling position",
		"principal", cred.Principal, "symbol", target.Symbol,
		"current", current, "desired", target.DesiredSize,
		"side", action.Side, "quantity", action.Quantity)

	return e.submit(ctx, cred, domain.OrderRequest{
		Symbol:   target.Symbol,
		Exchange: target.Exchange,
		Side:     action.Side,
		Quantity: action.Quantity,
		Product:  target.Product,
		Strategy: target.Strategy,
	})
}

// ---------------------------------------------------------------------------
// Read passthroughs
// ---------------------------------------------------------------------------

// OrderBook returns today's orders for the principal.
func (e *Engine) OrderBook(ctx context.Context, principal string) ([]broker.OrderBookEntry, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.gateway.OrderBook(ctx, cred)
}

// TradeBook returns today's fills for the principal.
func (e *Engine) TradeBook(ctx context.Context, principal string) ([]broker.TradeBookEntry, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.gateway.TradeBook(ctx, cred)
}

// Positions returns the principal's net positions.
func (e *Engine) Positions(ctx context.Context, principal string) ([]broker.NetPosition, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.gateway.Positions(ctx, cred)
}

// Holdings returns the principal's demat holdings.
func (e *Engine) Holdings(ctx context.Context, principal string) ([]broker.Holding, error) {
	cred, err := e.creds.Resolve(ctx, principal)
	if err != nil {
		return nil, err
	}
	return e.gateway.Holdings(ctx, cred)
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// submit builds the wire payload for req and sends it through the gateway,
// journalling and counting the result.
func (e *Engine) submit(ctx context.Context, cred domain.Credential, req domain.OrderRequest) (*domain.OrderOutcome, error) {
	token, err := e.symbols.Resolve(ctx, req.Symbol, req.Exchange)
	if err != nil {
		e.countFailed()
		return nil, err
	}
	payload, err := transform.BuildPlaceOrder(req, token)
	if err != nil {
		e.countFailed()
		e.journalEntry(ctx, cred.Principal, req, payload, nil, journal.OutcomeFailed, err.Error())
		return nil, err
	}

	start := time.Now()
	outcome, err := e.gateway.PlaceOrder(ctx, cred, payload)
	e.observeGateway("placeOrder", start)

	if err != nil {
		var rej *domain.BrokerRejection
		if errors.As(err, &rej) {
			if e.metrics != nil {
				e.metrics.OrdersRejected.Inc()
			}
			e.journalEntry(ctx, cred.Principal, req, payload, outcome, journal.OutcomeRejected, rej.Message)
			e.log.Warn("order rejected",
				"principal", cred.Principal, "symbol", req.Symbol, "message", rej.Message)
			return outcome, err
		}
		e.countFailed()
		e.journalEntry(ctx, cred.Principal, req, payload, nil, journal.OutcomeFailed, err.Error())
		return nil, err
	}

	if e.metrics != nil {
		e.metrics.OrdersSubmitted.WithLabelValues(payload.TransactionType, payload.ProductType).Inc()
	}
	e.journalEntry(ctx, cred.Principal, req, payload, outcome, journal.OutcomeSubmitted, outcome.Message)
	e.log.Info("order placed",
		"principal", cred.Principal, "symbol", req.Symbol,
		"side", payload.TransactionType, "quantity", req.Quantity,
		"order_id", outcome.OrderID)
	return outcome, nil
}

// currentNetQty fetches the live position book and returns the signed net
// quantity for one symbol/exchange/product. A confirmed-empty book is flat.
func (e *Engine) currentNetQty(ctx context.Context, cred domain.Credential, symbol, exchange, brokerProduct string) (int64, error) {
	positions, err := e.gateway.Positions(ctx, cred)
	if err != nil {
		return 0, err
	}

	var net int64
	for _, p := range positions {
		if p.TradingSymbol != symbol || p.Exchange != exchange || p.ProductType != brokerProduct {
			continue
		}
		qty, err := strconv.ParseInt(p.NetQty, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable net quantity %q for %s: %w", p.NetQty, symbol, err)
		}
		net += qty
	}
	return net, nil
}

func (e *Engine) journalEntry(ctx context.Context, principal string, req domain.OrderRequest, payload broker.PlaceOrderPayload, outcome *domain.OrderOutcome, result, message string) {
	if e.journal == nil {
		return
	}
	entry := journal.Entry{
		Principal: principal,
		Strategy:  req.Strategy,
		Symbol:    req.Symbol,
		Exchange:  req.Exchange,
		Product:   payload.ProductType,
		Side:      payload.TransactionType,
		Kind:      payload.OrderType,
		Quantity:  req.Quantity,
		Price:     req.Price.String(),
		Outcome:   result,
		Message:   message,
	}
	if outcome != nil {
		entry.OrderID = outcome.OrderID
	}
	if err := e.journal.Record(ctx, entry); err != nil {
		// The order already went out; a journal failure must not fail the call.
		e.log.Error("journal write failed", "principal", principal, "error", err)
	}
}

func (e *Engine) countFailed() {
	if e.metrics != nil {
		e.metrics.OrdersFailed.Inc()
	}
}

func (e *Engine) countReconcile(action string) {
	if e.metrics != nil {
		e.metrics.ReconcileActions.WithLabelValues(action).Inc()
	}
}

func (e *Engine) observeGateway(endpoint string, start time.Time) {
	if e.metrics != nil {
		e.metrics.GatewayDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
