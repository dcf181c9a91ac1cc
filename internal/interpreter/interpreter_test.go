package interpreter

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"aibroker/internal/domain"
)

func TestBuildPromptEmbedsSections(t *testing.T) {
	price := decimal.RequireFromString("231.50")
	snap := &domain.MarketSnapshot{
		Quotes: map[string]domain.Quote{
			"AAPL": {Symbol: "AAPL", Price: &price, Tradeable: true},
		},
	}
	prompt, err := BuildPrompt("Buy 10 shares of Apple", snap, map[string]string{"APPLE": "AAPL"})
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}

	for _, want := range []string{
		"<available_actions>",
		"buy_stock(symbol, quantity)",
		"get_stock_price(symbol)",
		"get_account_info()",
		"<market_data>",
		`"231.5"`,
		"<company_mapping>",
		`"APPLE": "AAPL"`,
		"<user_input>\nBuy 10 shares of Apple\n</user_input>",
		"<actions_taken>",
		"NEVER refuse to execute buy orders",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptNilPriceSurvives(t *testing.T) {
	snap := &domain.MarketSnapshot{
		Quotes: map[string]domain.Quote{
			"GHOST": {Symbol: "GHOST", Tradeable: true, Note: "no price data available; orders still accepted"},
		},
		AccountError: "account unavailable",
	}
	prompt, err := BuildPrompt("buy GHOST", snap, nil)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	if !strings.Contains(prompt, `"price": null`) {
		t.Error("nil price not rendered as JSON null")
	}
	if !strings.Contains(prompt, "account unavailable") {
		t.Error("account error not embedded")
	}
}

func TestErrorBlock(t *testing.T) {
	got := ErrorBlock(errors.New("completion request: boom"))
	if !strings.Contains(got, "<broker_response>") || !strings.Contains(got, "<error>") {
		t.Errorf("ErrorBlock shape wrong: %q", got)
	}
	if !strings.Contains(got, "completion request: boom") {
		t.Errorf("ErrorBlock missing cause: %q", got)
	}
}

func TestAppendResults(t *testing.T) {
	results := map[string]any{
		"buy_stock_0": map[string]any{"status": "success", "order_id": "o1"},
	}
	out, err := AppendResults("<broker_response>...</broker_response>", results)
	if err != nil {
		t.Fatalf("AppendResults: %v", err)
	}
	if !strings.Contains(out, "<actual_results>") || !strings.Contains(out, "</actual_results>") {
		t.Errorf("results block missing tags: %q", out)
	}
	if !strings.Contains(out, `"buy_stock_0"`) {
		t.Errorf("results key missing: %q", out)
	}
	if !strings.HasPrefix(out, "<broker_response>") {
		t.Error("original response not preserved at front")
	}
}
