// Package domain defines the shared types passed between the symbol
// resolver, market data normalizer, instruction interpreter, action
// extractor/dispatcher, and the brokerage gateway.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Order enums
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is the execution type of an order.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// TimeInForce controls how long an unfilled order remains active.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceOPG TimeInForce = "opg"
	TimeInForceCLS TimeInForce = "cls"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// ---------------------------------------------------------------------------
// Actions
// ---------------------------------------------------------------------------

// ActionName identifies one of the fixed set of operations the interpreter
// is permitted to request.
type ActionName string

const (
	ActionBuyStock       ActionName = "buy_stock"
	ActionGetStockPrice  ActionName = "get_stock_price"
	ActionGetAccountInfo ActionName = "get_account_info"
)

// Action is one structured operation extracted from the interpreter's
// response text. Symbol is set for buy_stock and get_stock_price; Quantity
// is set (and strictly positive) for buy_stock only.
type Action struct {
	Name     ActionName `json:"action"`
	Symbol   string     `json:"symbol,omitempty"`
	Quantity int        `json:"quantity,omitempty"`
}

// ActionRecord is the journal entry written for each dispatched action.
type ActionRecord struct {
	Name     string    `json:"name"`
	Symbol   string    `json:"symbol,omitempty"`
	Quantity int       `json:"quantity,omitempty"`
	Status   string    `json:"status"`
	OrderID  string    `json:"order_id,omitempty"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Quote is the normalized price record for one symbol. A nil Price is a
// valid, non-error state: the brokerage accepts orders without a live quote,
// so Tradeable stays true and Note explains the gap.
type Quote struct {
	Symbol    string           `json:"symbol"`
	Price     *decimal.Decimal `json:"price"`
	Change    *decimal.Decimal `json:"change,omitempty"`
	Volume    *decimal.Decimal `json:"volume,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Tradeable bool             `json:"tradeable"`
	Note      string           `json:"note,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// AccountSnapshot is the account state attached to a market snapshot and
// returned by the get_account_info action.
type AccountSnapshot struct {
	Equity        decimal.Decimal `json:"equity"`
	Cash          decimal.Decimal `json:"cash"`
	BuyingPower   decimal.Decimal `json:"buying_power"`
	Status        string          `json:"status"`
	DaytradeCount int64           `json:"day_trade_count"`
}

// MarketSnapshot bundles per-symbol quotes with an account snapshot for the
// interpreter prompt. AccountError carries the failure text when the account
// fetch failed; quotes are still usable in that case.
type MarketSnapshot struct {
	Quotes       map[string]Quote `json:"quotes"`
	Account      *AccountSnapshot `json:"account,omitempty"`
	AccountError string           `json:"account_error,omitempty"`
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// ErrQtyNotional is returned when an order request does not set exactly one
// of Qty and Notional.
var ErrQtyNotional = errors.New("exactly one of qty and notional must be set")

// OrderRequest describes an order to submit to the brokerage. Exactly one of
// Qty (share count) and Notional (dollar amount) must be set.
type OrderRequest struct {
	Symbol        string
	Side          OrderSide
	Type          OrderType
	Qty           *decimal.Decimal
	Notional      *decimal.Decimal
	TimeInForce   TimeInForce
	LimitPrice    *decimal.Decimal
	StopPrice     *decimal.Decimal
	ExtendedHours bool
	ClientOrderID string
}

// Validate checks the request invariants before any network call: symbol
// present, exactly one of qty/notional, all sizes and prices positive.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" {
		return errors.New("symbol is required")
	}
	if (r.Qty == nil) == (r.Notional == nil) {
		return ErrQtyNotional
	}
	if r.Qty != nil && !r.Qty.IsPositive() {
		return errors.New("qty must be positive")
	}
	if r.Notional != nil && !r.Notional.IsPositive() {
		return errors.New("notional must be positive")
	}
	switch r.Type {
	case OrderTypeLimit:
		if r.LimitPrice == nil || !r.LimitPrice.IsPositive() {
			return errors.New("limit price must be positive")
		}
	case OrderTypeStop:
		if r.StopPrice == nil || !r.StopPrice.IsPositive() {
			return errors.New("stop price must be positive")
		}
	case OrderTypeStopLimit:
		if r.StopPrice == nil || !r.StopPrice.IsPositive() {
			return errors.New("stop price must be positive")
		}
		if r.LimitPrice == nil || !r.LimitPrice.IsPositive() {
			return errors.New("limit price must be positive")
		}
	}
	return nil
}

// ResultStatus classifies an operation outcome.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusPartial ResultStatus = "partial"
)

// OrderResult is the immutable outcome of a submitted or fetched order.
type OrderResult struct {
	Status         ResultStatus     `json:"status"`
	OrderID        string           `json:"order_id"`
	ClientOrderID  string           `json:"client_order_id,omitempty"`
	Symbol         string           `json:"symbol"`
	Side           OrderSide        `json:"side"`
	Type           OrderType        `json:"type"`
	Qty            *decimal.Decimal `json:"quantity,omitempty"`
	Notional       *decimal.Decimal `json:"notional,omitempty"`
	OrderStatus    string           `json:"order_status"`
	FilledQty      decimal.Decimal  `json:"filled_qty"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price,omitempty"`
	TimeInForce    TimeInForce      `json:"time_in_force,omitempty"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty"`
	StopPrice      *decimal.Decimal `json:"stop_price,omitempty"`
	SubmittedAt    time.Time        `json:"submitted_at"`
	FilledAt       *time.Time       `json:"filled_at,omitempty"`
}

// Position is one open position held at the brokerage.
type Position struct {
	Symbol        string           `json:"symbol"`
	Qty           decimal.Decimal  `json:"qty"`
	Side          string           `json:"side"`
	AvgEntryPrice decimal.Decimal  `json:"avg_entry_price"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	MarketValue   *decimal.Decimal `json:"market_value,omitempty"`
	UnrealizedPL  *decimal.Decimal `json:"unrealized_pl,omitempty"`
}
