package broker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/google/uuid"

	"aibroker/internal/domain"
)

// Compile-time interface check.
var _ Gateway = (*AlpacaGateway)(nil)

// AlpacaGateway implements the Gateway interface using the Alpaca trading
// API.
type AlpacaGateway struct {
	client     *alpaca.Client
	configured bool
	log        *slog.Logger
}

// NewAlpacaGateway creates an AlpacaGateway for the given credentials and
// API endpoint. Empty credentials produce a gateway whose every operation
// fails fast with ErrNotConfigured, without touching the network.
func NewAlpacaGateway(apiKey, apiSecret, baseURL string, log *slog.Logger) *AlpacaGateway {
	configured := apiKey != "" && apiSecret != "" && baseURL != ""

	var client *alpaca.Client
	if configured {
		client = alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
		})
	}

	return &AlpacaGateway{
		client:     client,
		configured: configured,
		log:        log.With("component", "broker"),
	}
}

// ready returns ErrNotConfigured if the gateway has no credentials.
func (g *AlpacaGateway) ready() error {
	if !g.configured {
		return ErrNotConfigured
	}
	return nil
}

// callError converts an Alpaca SDK error into a *CallError, preserving the
// HTTP status code for API-level failures.
func callError(err error) error {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return &CallError{StatusCode: apiErr.StatusCode, Message: apiErr.Message}
	}
	return &CallError{Message: err.Error()}
}

// GetAccount returns the current account snapshot from the Alpaca API.
func (g *AlpacaGateway) GetAccount(_ context.Context) (*domain.AccountSnapshot, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	acct, err := g.client.GetAccount()
	if err != nil {
		return nil, callError(err)
	}
	return &domain.AccountSnapshot{
		Equity:        acct.Equity,
		Cash:          acct.Cash,
		BuyingPower:   acct.BuyingPower,
		Status:        string(acct.Status),
		DaytradeCount: acct.DaytradeCount,
	}, nil
}

// GetPositions returns all current positions from the Alpaca account.
func (g *AlpacaGateway) GetPositions(_ context.Context) ([]domain.Position, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	positions, err := g.client.GetPositions()
	if err != nil {
		return nil, callError(err)
	}
	out := make([]domain.Position, 0, len(positions))
	for i := range positions {
		out = append(out, positionFromAlpaca(&positions[i]))
	}
	return out, nil
}

// GetPosition returns the position held for one symbol.
func (g *AlpacaGateway) GetPosition(_ context.Context, symbol string) (*domain.Position, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	p, err := g.client.GetPosition(symbol)
	if err != nil {
		return nil, callError(err)
	}
	pos := positionFromAlpaca(p)
	return &pos, nil
}

// SubmitOrder validates the request and sends it to the Alpaca API for
// execution. A client order ID is generated when the caller did not supply
// one.
func (g *AlpacaGateway) SubmitOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	clientOrderID := req.ClientOrderID
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	}

	tif := req.TimeInForce
	if tif == "" {
		tif = domain.TimeInForceDay
	}

	order, err := g.client.PlaceOrder(alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Qty:           req.Qty,
		Notional:      req.Notional,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type),
		TimeInForce:   alpaca.TimeInForce(tif),
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		ExtendedHours: req.ExtendedHours,
		ClientOrderID: clientOrderID,
	})
	if err != nil {
		return nil, callError(err)
	}

	g.log.Info("order submitted",
		"symbol", order.Symbol,
		"side", string(order.Side),
		"type", string(order.Type),
		"order_id", order.ID,
	)
	result := orderResultFromAlpaca(order)
	return &result, nil
}

// GetOrder retrieves one order by its ID.
func (g *AlpacaGateway) GetOrder(_ context.Context, orderID string) (*domain.OrderResult, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	order, err := g.client.GetOrder(orderID)
	if err != nil {
		return nil, callError(err)
	}
	result := orderResultFromAlpaca(order)
	return &result, nil
}

// ListOrders returns orders filtered by status up to limit.
func (g *AlpacaGateway) ListOrders(_ context.Context, status string, limit int) ([]domain.OrderResult, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	orders, err := g.client.GetOrders(alpaca.GetOrdersRequest{
		Status: status,
		Limit:  limit,
	})
	if err != nil {
		return nil, callError(err)
	}
	out := make([]domain.OrderResult, 0, len(orders))
	for i := range orders {
		out = append(out, orderResultFromAlpaca(&orders[i]))
	}
	return out, nil
}

// CancelOrder requests cancellation of an open order.
func (g *AlpacaGateway) CancelOrder(_ context.Context, orderID string) error {
	if err := g.ready(); err != nil {
		return err
	}
	if err := g.client.CancelOrder(orderID); err != nil {
		return callError(err)
	}
	g.log.Info("order cancelled", "order_id", orderID)
	return nil
}

// CancelAllOrders requests cancellation of every open order.
func (g *AlpacaGateway) CancelAllOrders(_ context.Context) error {
	if err := g.ready(); err != nil {
		return err
	}
	if err := g.client.CancelAllOrders(); err != nil {
		return callError(err)
	}
	g.log.Info("all open orders cancelled")
	return nil
}

// ---------------------------------------------------------------------------
// Wire-to-domain mapping. This is the single deserialization point from SDK
// types to domain records.
// ---------------------------------------------------------------------------

func orderResultFromAlpaca(o *alpaca.Order) domain.OrderResult {
	return domain.OrderResult{
		Status:         domain.StatusSuccess,
		OrderID:        o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Side:           domain.OrderSide(o.Side),
		Type:           domain.OrderType(o.Type),
		Qty:            o.Qty,
		Notional:       o.Notional,
		OrderStatus:    o.Status,
		FilledQty:      o.FilledQty,
		FilledAvgPrice: o.FilledAvgPrice,
		TimeInForce:    domain.TimeInForce(o.TimeInForce),
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		SubmittedAt:    o.SubmittedAt,
		FilledAt:       o.FilledAt,
	}
}

func positionFromAlpaca(p *alpaca.Position) domain.Position {
	return domain.Position{
		Symbol:        p.Symbol,
		Qty:           p.Qty,
		Side:          string(p.Side),
		AvgEntryPrice: p.AvgEntryPrice,
		CurrentPrice:  p.CurrentPrice,
		MarketValue:   p.MarketValue,
		UnrealizedPL:  p.UnrealizedPL,
	}
}
