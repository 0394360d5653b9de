package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"tradeflow/internal/domain"
)

// OrderJSON is the request body for place and modify calls. Prices accept
// JSON numbers or strings; omitted optional fields take the engine defaults.
type OrderJSON struct {
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
	Squareoff    decimal.Decimal `json:"squareoff,omitempty"`
	Stoploss     decimal.Decimal `json:"stoploss,omitempty"`
	Strategy     string          `json:"strategy,omitempty"`
}

// toDomain converts the DTO to an engine order request. orderID is non-empty
// only for modify.
func (o OrderJSON) toDomain(orderID string) domain.OrderRequest {
	return domain.OrderRequest{
		Symbol:       o.Symbol,
		Exchange:     o.Exchange,
		Side:         domain.Side(o.Side),
		Quantity:     o.Quantity,
		Kind:         domain.OrderKind(o.OrderType),
		Product:      domain.ProductType(o.Product),
		Duration:     domain.Duration(o.Duration),
		Variety:      domain.Variety(o.Variety),
		Price:        o.Price,
		TriggerPrice: o.TriggerPrice,
		Squareoff:    o.Squareoff,
		Stoploss:     o.Stoploss,
		Strategy:     o.Strategy,
		OrderID:      orderID,
	}
}

// SmartOrderJSON is the request body for smart orders.
type SmartOrderJSON struct {
	Symbol       string `json:"symbol"`
	Exchange     string `json:"exchange"`
	Product      string `json:"product,omitempty"`
	DesiredSize  int64  `json:"desired_size"`
	FallbackSide string `json:"fallback_side,omitempty"`
	FallbackQty  int64  `json:"fallback_qty,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
}

func (o SmartOrderJSON) toDomain() domain.TargetPosition {
	return domain.TargetPosition{
		Symbol:       o.Symbol,
		Exchange:     o.Exchange,
		Product:      domain.ProductType(o.Product),
		DesiredSize:  o.DesiredSize,
		FallbackSide: domain.Side(o.FallbackSide),
		FallbackQty:  o.FallbackQty,
		Strategy:     o.Strategy,
	}
}

// CredentialJSON is the request body for credential upserts.
type CredentialJSON struct {
	AccessToken string     `json:"access_token"`
	APIKey      string     `json:"api_key"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}
