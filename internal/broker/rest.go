package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tradeflow/internal/domain"
	"tradeflow/internal/util"
)

// Compile-time interface check.
var _ Gateway = (*RESTGateway)(nil)

// Broker endpoint paths. The host is configuration; the paths are part of
// the vendor's wire contract.
const (
	placeOrderPath  = "/rest/secure/order/v1/placeOrder"
	modifyOrderPath = "/rest/secure/order/v1/modifyOrder"
	cancelOrderPath = "/rest/secure/order/v1/cancelOrder"
	orderBookPath   = "/rest/secure/order/v1/getOrderBook"
	tradeBookPath   = "/rest/secure/order/v1/getTradeBook"
	positionsPath   = "/rest/secure/order/v1/getPosition"
	holdingsPath    = "/rest/secure/portfolio/v1/getAllHolding"
)

// RESTGateway implements Gateway over the broker's HTTPS API. One synchronous
// request/response pair per operation; the shared http.Client pools
// connections but failures stay isolated per call.
type RESTGateway struct {
	baseURL     string
	client      *http.Client
	readRetries int
	log         *slog.Logger
}

// NewRESTGateway creates a RESTGateway for the given API host. timeout bounds
// each call end to end; readRetries is the attempt count for idempotent
// fetches (1 disables retrying).
func NewRESTGateway(baseURL string, timeout time.Duration, readRetries int) *RESTGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if readRetries < 1 {
		readRetries = 1
	}
	return &RESTGateway{
		baseURL:     baseURL,
		client:      &http.Client{Timeout: timeout},
		readRetries: readRetries,
		log:         slog.Default().With("gateway", "rest"),
	}
}

// Name returns "rest".
func (g *RESTGateway) Name() string { return "rest" }

// call performs one broker request and decodes the response envelope. Any
// network or decode failure is reported as a *domain.TransportError; an
// envelope with status=false is returned as-is for the caller to classify.
func (g *RESTGateway) call(ctx context.Context, cred domain.Credential, op, method, path string, body any) (*envelope, []byte, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding %s payload: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("X-PrivateKey", cred.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &domain.TransportError{Op: op, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, &domain.TransportError{Op: op, Err: fmt.Errorf("decoding envelope: %w", err)}
	}
	return &env, raw, nil
}

// PlaceOrder submits an order to the broker. Never retried.
func (g *RESTGateway) PlaceOrder(ctx context.Context, cred domain.Credential, p PlaceOrderPayload) (*domain.OrderOutcome, error) {
	env, raw, err := g.call(ctx, cred, "placeOrder", http.MethodPost, placeOrderPath, p)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		g.log.Warn("order rejected", "symbol", p.TradingSymbol, "message", env.Message)
		return &domain.OrderOutcome{Message: env.Message, Raw: raw},
			&domain.BrokerRejection{Op: "placeOrder", Message: env.Message}
	}

	var d orderIDData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, &domain.TransportError{Op: "placeOrder", Err: fmt.Errorf("decoding order id: %w", err)}
	}
	g.log.Info("order placed", "symbol", p.TradingSymbol, "side", p.TransactionType, "qty", p.Quantity, "orderID", d.OrderID)
	return &domain.OrderOutcome{Submitted: true, OrderID: d.OrderID, Message: env.Message, Raw: raw}, nil
}

// ModifyOrder amends an open order. Never retried.
func (g *RESTGateway) ModifyOrder(ctx context.Context, cred domain.Credential, p ModifyOrderPayload) (*domain.OrderOutcome, error) {
	env, raw, err := g.call(ctx, cred, "modifyOrder", http.MethodPost, modifyOrderPath, p)
	if err != nil {
		return nil, err
	}
	if !env.Status {
		return &domain.OrderOutcome{Message: env.Message, Raw: raw},
			&domain.BrokerRejection{Op: "modifyOrder", Message: env.Message}
	}

	var d orderIDData
	if err := json.Unmarshal(env.Data, &d); err != nil {
		return nil, &domain.TransportError{Op: "modifyOrder", Err: fmt.Errorf("decoding order id: %w", err)}
	}
	return &domain.OrderOutcome{Submitted: true, OrderID: d.OrderID, Message: env.Message, Raw: raw}, nil
}

// CancelOrder cancels an open order by ID. Never retried.
func (g *RESTGateway) CancelOrder(ctx context.Context, cred domain.Credential, orderID string) error {
	env, _, err := g.call(ctx, cred, "cancelOrder", http.MethodPost, cancelOrderPath,
		cancelOrderPayload{Variety: string(domain.VarietyNormal), OrderID: orderID})
	if err != nil {
		return err
	}
	if !env.Status {
		return &domain.BrokerRejection{Op: "cancelOrder", Message: env.Message}
	}
	return nil
}

// OrderBook returns today's orders. Retried on transport failure.
func (g *RESTGateway) OrderBook(ctx context.Context, cred domain.Credential) ([]OrderBookEntry, error) {
	return fetchList[OrderBookEntry](ctx, g, cred, "orderBook", orderBookPath)
}

// TradeBook returns today's fills. Retried on transport failure.
func (g *RESTGateway) TradeBook(ctx context.Context, cred domain.Credential) ([]TradeBookEntry, error) {
	return fetchList[TradeBookEntry](ctx, g, cred, "tradeBook", tradeBookPath)
}

// Positions returns current net positions. Retried on transport failure.
// A confirmed-empty book decodes to a nil slice with a nil error.
func (g *RESTGateway) Positions(ctx context.Context, cred domain.Credential) ([]NetPosition, error) {
	return fetchList[NetPosition](ctx, g, cred, "positions", positionsPath)
}

// Holdings returns demat holdings. Retried on transport failure.
func (g *RESTGateway) Holdings(ctx context.Context, cred domain.Credential) ([]Holding, error) {
	return fetchList[Holding](ctx, g, cred, "holdings", holdingsPath)
}

// fetchList performs an idempotent read, retrying transport failures up to
// the configured attempt count.
func fetchList[T any](ctx context.Context, g *RESTGateway, cred domain.Credential, op, path string) ([]T, error) {
	var out []T
	err := util.Retry(ctx, g.readRetries, 250*time.Millisecond, func() error {
		env, _, err := g.call(ctx, cred, op, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		if !env.Status {
			// Application-level refusal; retrying will not change the answer.
			return util.Permanent(&domain.BrokerRejection{Op: op, Message: env.Message})
		}
		out = nil
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("decoding data: %w", err)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
