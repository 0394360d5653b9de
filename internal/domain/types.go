// Package domain defines the core types shared across the tradeflow order
// engine: order requests, positions, credentials, and typed outcomes.
package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderKind is the price type of an order.
type OrderKind string

const (
	OrderKindMarket    OrderKind = "MARKET"
	OrderKindLimit     OrderKind = "LIMIT"
	OrderKindStop      OrderKind = "SL"
	OrderKindStopLimit OrderKind = "SL-M"
)

// ProductType is the margin/settlement bucket in request vocabulary. The
// broker uses its own vocabulary; transform maps between the two.
type ProductType string

const (
	ProductIntraday     ProductType = "MIS"
	ProductDelivery     ProductType = "CNC"
	ProductCarryForward ProductType = "NRML"
)

// ProductTypes lists every valid request-side product type.
var ProductTypes = []ProductType{ProductIntraday, ProductDelivery, ProductCarryForward}

// Duration is the time-in-force of an order.
type Duration string

const (
	DurationDay Duration = "DAY"
	DurationIOC Duration = "IOC"
)

// Variety is the broker's order routing mode.
type Variety string

const (
	VarietyNormal   Variety = "NORMAL"
	VarietyStoploss Variety = "STOPLOSS"
	VarietyAMO      Variety = "AMO"
	VarietyRobo     Variety = "ROBO"
)

// OrderStatus is the broker-reported lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen           OrderStatus = "open"
	OrderStatusTriggerPending OrderStatus = "trigger pending"
	OrderStatusComplete       OrderStatus = "complete"
	OrderStatusRejected       OrderStatus = "rejected"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// IsOpen reports whether an order in this status can still be cancelled.
func (s OrderStatus) IsOpen() bool {
	return s == OrderStatusOpen || s == OrderStatusTriggerPending
}

// OrderRequest describes a single order to be submitted to the broker.
// Quantity must be positive for submission. Numeric fields use decimals
// internally; conversion to the broker's string-typed wire fields happens at
// the transform boundary.
type OrderRequest struct {
	Symbol       string
	Exchange     string
	Side         Side
	Quantity     int64
	Kind         OrderKind   // defaults to MARKET
	Product      ProductType // defaults to MIS
	Duration     Duration    // defaults to DAY
	Variety      Variety     // defaults to NORMAL
	Price        decimal.Decimal
	TriggerPrice decimal.Decimal
	Squareoff    decimal.Decimal
	Stoploss     decimal.Decimal
	Strategy     string // free-form tag carried to the journal
	OrderID      string // set only for modify
}

// TargetPosition instructs the engine to move a symbol's exposure to
// DesiredSize. FallbackSide/FallbackQty are used only when both the desired
// and current positions are zero; a zero FallbackQty means no fallback order.
type TargetPosition struct {
	Symbol      string
	Exchange    string
	Product     ProductType
	DesiredSize int64
	FallbackSide Side
	FallbackQty  int64
	Strategy     string
}

// Position is a snapshot of held exposure for one symbol/exchange/product
// combination. NetQty is signed: positive long, negative short, zero flat.
type Position struct {
	Symbol   string
	Exchange string
	Product  ProductType
	NetQty   int64
}

// Credential is the auth material required for one broker call on behalf of
// a principal.
type Credential struct {
	Principal   string
	AccessToken string
	APIKey      string
	Revoked     bool
	ExpiresAt   time.Time
}

// OrderOutcome is the terminal result of a place/modify call. Raw preserves
// the broker's response body for operator diagnosis.
type OrderOutcome struct {
	Submitted bool            `json:"submitted"`
	OrderID   string          `json:"order_id,omitempty"`
	Message   string          `json:"message,omitempty"`
	Raw       json.RawMessage `json:"raw,omitempty"`
}
