// Package transform maps abstract order requests onto the broker's wire
// vocabulary. Everything here is pure: identical inputs always produce
// identical payloads, and no network calls happen at this layer.
package transform

import (
	"strconv"

	"tradeflow/internal/broker"
	"tradeflow/internal/domain"
)

// Broker-side product vocabulary.
const (
	brokerIntraday     = "INTRADAY"
	brokerDelivery     = "DELIVERY"
	brokerCarryForward = "CARRYFORWARD"
)

// MapProductType translates a request-side product type into the broker's
// vocabulary.
func MapProductType(p domain.ProductType) (string, error) {
	switch p {
	case domain.ProductIntraday:
		return brokerIntraday, nil
	case domain.ProductDelivery:
		return brokerDelivery, nil
	case domain.ProductCarryForward:
		return brokerCarryForward, nil
	}
	return "", &domain.MappingError{Value: string(p)}
}

// ReverseProductType translates a broker-side product type back into request
// vocabulary. It is a total inverse of MapProductType over the valid enum; an
// unrecognised broker value (e.g. MARGIN) is a MappingError, never a silent
// default — defaulting here would square off the wrong product bucket.
func ReverseProductType(s string) (domain.ProductType, error) {
	switch s {
	case brokerIntraday:
		return domain.ProductIntraday, nil
	case brokerDelivery:
		return domain.ProductDelivery, nil
	case brokerCarryForward:
		return domain.ProductCarryForward, nil
	}
	return "", &domain.MappingError{Value: s}
}

// applyDefaults fills the optional fields of a request in place.
func applyDefaults(req *domain.OrderRequest) {
	if req.Kind == "" {
		req.Kind = domain.OrderKindMarket
	}
	if req.Product == "" {
		req.Product = domain.ProductIntraday
	}
	if req.Duration == "" {
		req.Duration = domain.DurationDay
	}
	if req.Variety == "" {
		req.Variety = domain.VarietyNormal
	}
}

// validate rejects requests missing the fields no order can be built without.
func validate(req domain.OrderRequest) error {
	if req.Symbol == "" {
		return &domain.ValidationError{Field: "symbol", Msg: "required"}
	}
	if req.Exchange == "" {
		return &domain.ValidationError{Field: "exchange", Msg: "required"}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return &domain.ValidationError{Field: "side", Msg: "must be BUY or SELL"}
	}
	if req.Quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Msg: "must be positive"}
	}
	return nil
}

// BuildPlaceOrder converts an order request plus its resolved instrument
// token into the broker's place-order payload. Quantities and prices become
// the string-typed wire fields the protocol requires, defaulting to "0".
func BuildPlaceOrder(req domain.OrderRequest, instrumentToken string) (broker.PlaceOrderPayload, error) {
	if err := validate(req); err != nil {
		return broker.PlaceOrderPayload{}, err
	}
	applyDefaults(&req)

	product, err := MapProductType(req.Product)
	if err != nil {
		return broker.PlaceOrderPayload{}, err
	}

	return broker.PlaceOrderPayload{
		Variety:         string(req.Variety),
		TradingSymbol:   req.Symbol,
		SymbolToken:     instrumentToken,
		TransactionType: string(req.Side),
		Exchange:        req.Exchange,
		OrderType:       string(req.Kind),
		ProductType:     product,
		Duration:        string(req.Duration),
		Price:           req.Price.String(),
		TriggerPrice:    req.TriggerPrice.String(),
		Squareoff:       req.Squareoff.String(),
		Stoploss:        req.Stoploss.String(),
		Quantity:        strconv.FormatInt(req.Quantity, 10),
	}, nil
}

// BuildModifyOrder converts a modify request into the broker's modify-order
// payload. The request must carry the broker order id being amended.
func BuildModifyOrder(req domain.OrderRequest, instrumentToken string) (broker.ModifyOrderPayload, error) {
	if req.OrderID == "" {
		return broker.ModifyOrderPayload{}, &domain.ValidationError{Field: "order_id", Msg: "required"}
	}
	if err := validate(req); err != nil {
		return broker.ModifyOrderPayload{}, err
	}
	applyDefaults(&req)

	return broker.ModifyOrderPayload{
		Variety:       string(req.Variety),
		OrderID:       req.OrderID,
		OrderType:     string(req.Kind),
		Duration:      string(req.Duration),
		Price:         req.Price.String(),
		Quantity:      strconv.FormatInt(req.Quantity, 10),
		TradingSymbol: req.Symbol,
		SymbolToken:   instrumentToken,
		Exchange:      req.Exchange,
	}, nil
}
