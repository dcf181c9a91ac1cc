// Package marketdata turns raw Alpaca bar data into the normalized quote
// snapshot fed to the instruction interpreter. A symbol with no recent bars
// is not an error: the brokerage accepts orders without a live quote, so the
// snapshot keeps the symbol tradeable and notes the gap instead of failing.
package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"aibroker/internal/domain"
)

// lookback windows for the timeframe ladder and the wide daily fallback.
const (
	ladderLookback   = 30 * 24 * time.Hour
	fallbackLookback = 90 * 24 * time.Hour
)

// BarSource fetches historical bars for one symbol. *marketdata.Client
// satisfies it directly.
type BarSource interface {
	GetBars(symbol string, req md.GetBarsRequest) ([]md.Bar, error)
}

// AccountSource supplies the account snapshot attached to each market
// snapshot. The brokerage gateway satisfies it.
type AccountSource interface {
	GetAccount(ctx context.Context) (*domain.AccountSnapshot, error)
}

// Normalizer assembles per-symbol quotes and an account snapshot. It never
// fails as a whole: per-symbol and account errors are embedded in the
// snapshot so the interpreter always gets something to work with.
type Normalizer struct {
	bars    BarSource
	account AccountSource
	now     func() time.Time
	log     *slog.Logger
}

// NewNormalizer creates a Normalizer over the given bar and account sources.
// account may be nil, in which case snapshots carry no account section.
func NewNormalizer(bars BarSource, account AccountSource, log *slog.Logger) *Normalizer {
	return &Normalizer{
		bars:    bars,
		account: account,
		now:     time.Now,
		log:     log.With("component", "marketdata"),
	}
}

// NewClient builds the Alpaca market-data client used as the production
// BarSource. An empty dataURL uses the SDK default endpoint.
func NewClient(apiKey, apiSecret, dataURL string) *md.Client {
	opts := md.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return md.NewClient(opts)
}

// Snapshot fetches a quote for every symbol plus the current account state.
// Symbols that cannot be quoted come back with a nil price and an
// explanatory note or error; an account failure is recorded in AccountError.
func (n *Normalizer) Snapshot(ctx context.Context, symbols []string) (*domain.MarketSnapshot, error) {
	snap := &domain.MarketSnapshot{
		Quotes: make(map[string]domain.Quote, len(symbols)),
	}

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap.Quotes[symbol] = n.QuoteFor(ctx, symbol)
	}

	if n.account != nil {
		acct, err := n.account.GetAccount(ctx)
		if err != nil {
			n.log.Warn("account fetch failed", "error", err)
			snap.AccountError = err.Error()
		} else {
			snap.Account = acct
		}
	}
	return snap, nil
}

// QuoteFor fetches the freshest available bar for one symbol, walking a
// timeframe ladder from 15-minute bars down to daily bars over the last 30
// days, then a wide 90-day daily window. Every failure mode produces a
// usable quote rather than an error return.
func (n *Normalizer) QuoteFor(ctx context.Context, symbol string) domain.Quote {
	quote := domain.Quote{Symbol: symbol, Tradeable: true}

	end := n.now()
	ladder := []md.TimeFrame{
		md.NewTimeFrame(15, md.Min),
		md.OneHour,
		md.OneDay,
	}

	var lastErr error
	for _, tf := range ladder {
		bar, err := n.latestBar(symbol, tf, end.Add(-ladderLookback), end)
		if err != nil {
			lastErr = err
			continue
		}
		if bar != nil {
			fillQuote(&quote, bar)
			return quote
		}
	}

	// Thinly traded symbols may have no bars in the last month; try a wide
	// daily window before giving up on a price.
	bar, err := n.latestBar(symbol, md.OneDay, end.Add(-fallbackLookback), end)
	if err != nil {
		lastErr = err
	}
	if bar != nil {
		quote.Note = "price from daily history; no recent intraday data"
		fillQuote(&quote, bar)
		return quote
	}

	if lastErr != nil {
		n.log.Warn("quote fetch failed", "symbol", symbol, "error", lastErr)
		quote.Error = lastErr.Error()
	} else {
		n.log.Warn("no bar data", "symbol", symbol)
		quote.Note = "no price data available; orders still accepted"
	}
	return quote
}

// latestBar asks for the single most recent bar in [start, end]. A nil bar
// with nil error means the window was empty.
func (n *Normalizer) latestBar(symbol string, tf md.TimeFrame, start, end time.Time) (*md.Bar, error) {
	bars, err := n.bars.GetBars(symbol, md.GetBarsRequest{
		TimeFrame:  tf,
		Start:      start,
		End:        end,
		TotalLimit: 1,
		Sort:       md.SortDesc,
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s %s: %w", symbol, tf, err)
	}
	if len(bars) == 0 {
		return nil, nil
	}
	return &bars[0], nil
}

// fillQuote maps the single API bar onto the normalized quote. Change is the
// intra-bar move (close minus open); the interpreter only needs direction
// and rough magnitude.
func fillQuote(q *domain.Quote, bar *md.Bar) {
	price := decimal.NewFromFloat(bar.Close)
	change := decimal.NewFromFloat(bar.Close - bar.Open)
	volume := decimal.NewFromInt(int64(bar.Volume))
	q.Price = &price
	q.Change = &change
	q.Volume = &volume
	q.Timestamp = bar.Timestamp.UTC().Format(time.RFC3339)
}
