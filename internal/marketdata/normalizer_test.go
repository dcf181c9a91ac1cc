package marketdata

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	md "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"aibroker/internal/domain"
)

// fakeBars serves canned bars per timeframe and records the requests it saw.
type fakeBars struct {
	bySpan map[string][]md.Bar // keyed by TimeFrame.String()
	err    error
	calls  []string
}

func (f *fakeBars) GetBars(symbol string, req md.GetBarsRequest) ([]md.Bar, error) {
	f.calls = append(f.calls, req.TimeFrame.String())
	if f.err != nil {
		return nil, f.err
	}
	return f.bySpan[req.TimeFrame.String()], nil
}

type fakeAccount struct {
	snap *domain.AccountSnapshot
	err  error
}

func (f *fakeAccount) GetAccount(ctx context.Context) (*domain.AccountSnapshot, error) {
	return f.snap, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func mkBar(close, open float64, volume uint64, ts time.Time) md.Bar {
	return md.Bar{Timestamp: ts, Open: open, Close: close, Volume: volume}
}

func TestQuoteForPrefersIntradayBars(t *testing.T) {
	ts := time.Date(2025, 8, 29, 15, 45, 0, 0, time.UTC)
	bars := &fakeBars{bySpan: map[string][]md.Bar{
		md.NewTimeFrame(15, md.Min).String(): {mkBar(231.50, 230.00, 120000, ts)},
		md.OneDay.String():                   {mkBar(228.00, 225.00, 9000000, ts)},
	}}
	n := NewNormalizer(bars, nil, testLogger())

	q := n.QuoteFor(context.Background(), "AAPL")
	if q.Price == nil || !q.Price.Equal(decimal.NewFromFloat(231.50)) {
		t.Errorf("Price = %v, want 231.50", q.Price)
	}
	if !q.Tradeable {
		t.Error("Tradeable = false, want true")
	}
	if q.Error != "" || q.Note != "" {
		t.Errorf("unexpected Note/Error: %q %q", q.Note, q.Error)
	}
	if len(bars.calls) != 1 {
		t.Errorf("made %d calls, want 1 (first ladder rung hit)", len(bars.calls))
	}
	if q.Timestamp != "2025-08-29T15:45:00Z" {
		t.Errorf("Timestamp = %q", q.Timestamp)
	}
}

func TestQuoteForWalksLadderToDaily(t *testing.T) {
	ts := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	bars := &fakeBars{bySpan: map[string][]md.Bar{
		md.OneDay.String(): {mkBar(42.00, 41.00, 5000, ts)},
	}}
	n := NewNormalizer(bars, nil, testLogger())

	q := n.QuoteFor(context.Background(), "TINY")
	if q.Price == nil || !q.Price.Equal(decimal.NewFromFloat(42.00)) {
		t.Errorf("Price = %v, want 42.00", q.Price)
	}
	if len(bars.calls) != 3 {
		t.Errorf("made %d calls, want 3 (15min, hourly, daily)", len(bars.calls))
	}
	if q.Change == nil || !q.Change.Equal(decimal.NewFromFloat(1.00)) {
		t.Errorf("Change = %v, want 1.00", q.Change)
	}
}

func TestQuoteForNoDataStaysTradeable(t *testing.T) {
	bars := &fakeBars{bySpan: map[string][]md.Bar{}}
	n := NewNormalizer(bars, nil, testLogger())

	q := n.QuoteFor(context.Background(), "GHOST")
	if q.Price != nil {
		t.Errorf("Price = %v, want nil", q.Price)
	}
	if !q.Tradeable {
		t.Error("Tradeable = false, want true for symbol with no data")
	}
	if q.Note == "" {
		t.Error("Note empty, want explanation of missing price")
	}
	if q.Error != "" {
		t.Errorf("Error = %q, want empty (no data is not an error)", q.Error)
	}
	// Full ladder plus the 90-day fallback.
	if len(bars.calls) != 4 {
		t.Errorf("made %d calls, want 4", len(bars.calls))
	}
}

func TestQuoteForAPIErrorStaysTradeable(t *testing.T) {
	bars := &fakeBars{err: errors.New("rate limited")}
	n := NewNormalizer(bars, nil, testLogger())

	q := n.QuoteFor(context.Background(), "AAPL")
	if q.Price != nil {
		t.Errorf("Price = %v, want nil", q.Price)
	}
	if !q.Tradeable {
		t.Error("Tradeable = false, want true even on fetch error")
	}
	if q.Error == "" {
		t.Error("Error empty, want fetch error recorded")
	}
}

func TestSnapshotEmbedsAccountErrorAndKeepsQuotes(t *testing.T) {
	ts := time.Date(2025, 8, 29, 15, 45, 0, 0, time.UTC)
	bars := &fakeBars{bySpan: map[string][]md.Bar{
		md.NewTimeFrame(15, md.Min).String(): {mkBar(231.50, 230.00, 120000, ts)},
	}}
	acct := &fakeAccount{err: errors.New("account unavailable")}
	n := NewNormalizer(bars, acct, testLogger())

	snap, err := n.Snapshot(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Account != nil {
		t.Error("Account set despite fetch error")
	}
	if snap.AccountError == "" {
		t.Error("AccountError empty, want failure text")
	}
	if q, ok := snap.Quotes["AAPL"]; !ok || q.Price == nil {
		t.Errorf("AAPL quote missing or priceless: %+v", q)
	}
}

func TestSnapshotWithAccount(t *testing.T) {
	bars := &fakeBars{bySpan: map[string][]md.Bar{}}
	acct := &fakeAccount{snap: &domain.AccountSnapshot{
		Equity: decimal.NewFromInt(100000),
		Status: "ACTIVE",
	}}
	n := NewNormalizer(bars, acct, testLogger())

	snap, err := n.Snapshot(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Quotes) != 2 {
		t.Errorf("len(Quotes) = %d, want 2", len(snap.Quotes))
	}
	if snap.Account == nil || snap.Account.Status != "ACTIVE" {
		t.Errorf("Account = %+v", snap.Account)
	}
}

func TestSnapshotHonorsContextCancellation(t *testing.T) {
	bars := &fakeBars{bySpan: map[string][]md.Bar{}}
	n := NewNormalizer(bars, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := n.Snapshot(ctx, []string{"AAPL"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Snapshot = %v, want context.Canceled", err)
	}
}
