package broker

import "encoding/json"

// envelope is the broker's JSON response wrapper. A false Status means the
// broker processed the request and refused it; transport-level failures never
// produce an envelope at all.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// PlaceOrderPayload is the wire shape of a place-order call. All numeric
// fields are transmitted as strings, matching the broker protocol; the
// transform package owns the conversion from typed values.
type PlaceOrderPayload struct {
	Variety         string `json:"variety"`
	TradingSymbol   string `json:"tradingsymbol"`
	SymbolToken     string `json:"symboltoken"`
	TransactionType string `json:"transactiontype"`
	Exchange        string `json:"exchange"`
	OrderType       string `json:"ordertype"`
	ProductType     string `json:"producttype"`
	Duration        string `json:"duration"`
	Price           string `json:"price"`
	TriggerPrice    string `json:"triggerprice"`
	Squareoff       string `json:"squareoff"`
	Stoploss        string `json:"stoploss"`
	Quantity        string `json:"quantity"`
}

// ModifyOrderPayload is the wire shape of a modify-order call.
type ModifyOrderPayload struct {
	Variety       string `json:"variety"`
	OrderID       string `json:"orderid"`
	OrderType     string `json:"ordertype"`
	Duration      string `json:"duration"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	TradingSymbol string `json:"tradingsymbol"`
	SymbolToken   string `json:"symboltoken"`
	Exchange      string `json:"exchange"`
}

// cancelOrderPayload is the wire shape of a cancel-order call.
type cancelOrderPayload struct {
	Variety string `json:"variety"`
	OrderID string `json:"orderid"`
}

// orderIDData is the data section of a successful place/modify response.
type orderIDData struct {
	OrderID string `json:"orderid"`
}

// OrderBookEntry is one row of the broker's order book.
type OrderBookEntry struct {
	OrderID       string `json:"orderid"`
	TradingSymbol string `json:"tradingsymbol"`
	Exchange      string `json:"exchange"`
	ProductType   string `json:"producttype"`
	Status        string `json:"status"`
	OrderType     string `json:"ordertype"`
	Quantity      string `json:"quantity"`
	Price         string `json:"price"`
}

// TradeBookEntry is one row of the broker's trade book.
type TradeBookEntry struct {
	OrderID       string `json:"orderid"`
	TradingSymbol string `json:"tradingsymbol"`
	Exchange      string `json:"exchange"`
	ProductType   string `json:"producttype"`
	FillPrice     string `json:"fillprice"`
	FillSize      string `json:"fillsize"`
}

// NetPosition is one row of the broker's position book. NetQty stays a
// string at this boundary; the engine parses it.
type NetPosition struct {
	TradingSymbol string `json:"tradingsymbol"`
	Exchange      string `json:"exchange"`
	ProductType   string `json:"producttype"`
	NetQty        string `json:"netqty"`
	AvgPrice      string `json:"avgnetprice"`
}

// Holding is one row of the broker's holdings report.
type Holding struct {
	TradingSymbol string `json:"tradingsymbol"`
	Exchange      string `json:"exchange"`
	Quantity      string `json:"quantity"`
	AvgPrice      string `json:"averageprice"`
	LTP           string `json:"ltp"`
}
