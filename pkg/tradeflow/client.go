// Package tradeflow provides a Go SDK for the tradeflow-server API, for use
// by trading strategies and operator tooling.
package tradeflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to a tradeflow-server instance.
type Client struct {
	baseURL    string
	principal  string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL acting as principal.
// An empty principal uses the server's default credential.
func NewClient(baseURL, principal string) *Client {
	return &Client{
		baseURL:    baseURL,
		principal:  principal,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Order is an order to place or modify.
type Order struct {
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Side         string          `json:"side"`
	Quantity     int64           `json:"quantity"`
	OrderType    string          `json:"order_type,omitempty"`
	Product      string          `json:"product,omitempty"`
	Duration     string          `json:"duration,omitempty"`
	Variety      string          `json:"variety,omitempty"`
	Price        decimal.Decimal `json:"price,omitempty"`
	TriggerPrice decimal.Decimal `json:"trigger_price,omitempty"`
	Strategy     string          `json:"strategy,omitempty"`
}

// SmartOrder moves a position to a desired size.
type SmartOrder struct {
	Symbol       string `json:"symbol"`
	Exchange     string `json:"exchange"`
	Product      string `json:"product,omitempty"`
	DesiredSize  int64  `json:"desired_size"`
	FallbackSide string `json:"fallback_side,omitempty"`
	FallbackQty  int64  `json:"fallback_qty,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

// Outcome is the server's response to a place or modify call.
type Outcome struct {
	Submitted bool   `json:"submitted"`
	OrderID   string `json:"order_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Position is one row of the position book.
type Position struct {
	Symbol   string `json:"tradingsymbol"`
	Exchange string `json:"exchange"`
	Product  string `json:"producttype"`
	NetQty   string `json:"netqty"`
	AvgPrice string `json:"avgnetprice"`
}

// BookOrder is one row of the order book.
type BookOrder struct {
	OrderID   string `json:"orderid"`
	Symbol    string `json:"tradingsymbol"`
	Exchange  string `json:"exchange"`
	Product   string `json:"producttype"`
	Status    string `json:"status"`
	OrderType string `json:"ordertype"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// PlaceOrder submits an order.
func (c *Client) PlaceOrder(ctx context.Context, order Order) (*Outcome, error) {
	var out Outcome
	if err := c.do(ctx, "POST", "/api/orders", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceSmartOrder reconciles a position toward order.DesiredSize.
func (c *Client) PlaceSmartOrder(ctx context.Context, order SmartOrder) (*Outcome, error) {
	var out Outcome
	if err := c.do(ctx, "POST", "/api/orders/smart", order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ModifyOrder amends the open order with the given ID.
func (c *Client) ModifyOrder(ctx context.Context, orderID string, order Order) (*Outcome, error) {
	var out Outcome
	if err := c.do(ctx, "PUT", "/api/orders/"+orderID, order, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelOrder cancels the open order with the given ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, "DELETE", "/api/orders/"+orderID, nil, nil)
}

// CancelAll cancels every open order.
func (c *Client) CancelAll(ctx context.Context) error {
	return c.do(ctx, "POST", "/api/orders/cancel-all", nil, nil)
}

// SquareoffAll closes every open position with market orders.
func (c *Client) SquareoffAll(ctx context.Context) error {
	return c.do(ctx, "POST", "/api/positions/squareoff-all", nil, nil)
}

// Positions retrieves the current position book.
func (c *Client) Positions(ctx context.Context) ([]Position, error) {
	var out []Position
	if err := c.do(ctx, "GET", "/api/positions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// OrderBook retrieves today's orders.
func (c *Client) OrderBook(ctx context.Context) ([]BookOrder, error) {
	var out []BookOrder
	if err := c.do(ctx, "GET", "/api/orders", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.principal != "" {
		req.Header.Set("X-Principal", c.principal)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(resp.Body)
		msg := string(raw)
		if json.Unmarshal(raw, &apiErr) == nil {
			if apiErr.Error != "" {
				msg = apiErr.Error
			} else if apiErr.Message != "" {
				msg = apiErr.Message
			}
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
