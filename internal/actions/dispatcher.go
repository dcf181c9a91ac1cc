package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"aibroker/internal/broker"
	"aibroker/internal/domain"
)

// PriceSource answers get_stock_price actions. The market data normalizer
// satisfies it.
type PriceSource interface {
	QuoteFor(ctx context.Context, symbol string) domain.Quote
}

// Recorder persists a record of each dispatched action. Recording is best
// effort: failures are logged and never affect the action result.
type Recorder interface {
	RecordAction(ctx context.Context, rec domain.ActionRecord) error
}

// Dispatcher executes extracted actions in order against the brokerage.
// There is no rollback: actions after a failed one still run, and the
// failure is reported in that action's result slot.
type Dispatcher struct {
	gateway  broker.Gateway
	prices   PriceSource
	recorder Recorder // may be nil
	log      *slog.Logger
}

// NewDispatcher wires a dispatcher over the brokerage gateway, price
// source, and optional action recorder.
func NewDispatcher(gateway broker.Gateway, prices PriceSource, recorder Recorder, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		gateway:  gateway,
		prices:   prices,
		recorder: recorder,
		log:      log.With("component", "dispatcher"),
	}
}

// Execute runs every action in order and returns results keyed by
// "{action}_{index}". A failed action occupies the same slot with a
// status "error" payload, and later actions still execute.
func (d *Dispatcher) Execute(ctx context.Context, acts []domain.Action) map[string]any {
	results := make(map[string]any, len(acts))

	d.log.Info("executing actions", "count", len(acts))
	for i, a := range acts {
		d.log.Info("dispatching", "index", i, "action", a.Name, "symbol", a.Symbol, "quantity", a.Quantity)

		switch a.Name {
		case domain.ActionBuyStock:
			res, err := d.buyStock(ctx, a)
			d.record(ctx, a, res, err)
			if err != nil {
				results[fmt.Sprintf("%s_%d", a.Name, i)] = errorResult(a.Name, err)
				continue
			}
			results[fmt.Sprintf("%s_%d", a.Name, i)] = res

		case domain.ActionGetStockPrice:
			quote := d.prices.QuoteFor(ctx, a.Symbol)
			results[fmt.Sprintf("%s_%d", a.Name, i)] = quote

		case domain.ActionGetAccountInfo:
			acct, err := d.gateway.GetAccount(ctx)
			if err != nil {
				results[fmt.Sprintf("%s_%d", a.Name, i)] = errorResult(a.Name, err)
				continue
			}
			results[fmt.Sprintf("%s_%d", a.Name, i)] = acct

		default:
			results[fmt.Sprintf("unknown_action_%d", i)] = map[string]any{
				"status":  string(domain.StatusError),
				"message": fmt.Sprintf("Unknown action: %s", a.Name),
			}
		}
	}
	return results
}

// buyStock submits a market day order for the action's symbol and quantity.
func (d *Dispatcher) buyStock(ctx context.Context, a domain.Action) (*domain.OrderResult, error) {
	qty := decimal.NewFromInt(int64(a.Quantity))
	return d.gateway.SubmitOrder(ctx, domain.OrderRequest{
		Symbol:      a.Symbol,
		Side:        domain.OrderSideBuy,
		Type:        domain.OrderTypeMarket,
		Qty:         &qty,
		TimeInForce: domain.TimeInForceDay,
	})
}

// record journals a buy outcome. Never fatal.
func (d *Dispatcher) record(ctx context.Context, a domain.Action, res *domain.OrderResult, actErr error) {
	if d.recorder == nil {
		return
	}
	rec := domain.ActionRecord{
		Name:     string(a.Name),
		Symbol:   a.Symbol,
		Quantity: a.Quantity,
		At:       time.Now().UTC(),
	}
	if actErr != nil {
		rec.Status = string(domain.StatusError)
		rec.Message = actErr.Error()
	} else {
		rec.Status = string(res.Status)
		rec.OrderID = res.OrderID
	}
	if err := d.recorder.RecordAction(ctx, rec); err != nil {
		d.log.Warn("recording action failed", "error", err)
	}
}

func errorResult(name domain.ActionName, err error) map[string]any {
	return map[string]any{
		"status":  string(domain.StatusError),
		"message": fmt.Sprintf("Error executing %s: %s", name, err),
	}
}
