// Package actions parses the interpreter's tagged response into structured
// actions and dispatches them against the brokerage.
package actions

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"aibroker/internal/domain"
)

// actionsBlockRe isolates the <actions_taken> section; extraction never
// looks at text outside it.
var actionsBlockRe = regexp.MustCompile(`(?s)<actions_taken>(.*?)</actions_taken>`)

// symbol capture is restricted to ticker-shaped text so a keyword-argument
// call never half-matches an earlier positional pattern: against
// buy_stock(symbol="AAPL", quantity=10) the positional pattern fails
// outright and classification falls through to the keyword variant.
const symRe = `([A-Za-z][A-Za-z.\-]*)`

// linePattern is one named entry in the classification priority list. Each
// line of the actions block is checked against the list in order within its
// family; the first match wins.
type linePattern struct {
	name string
	re   *regexp.Regexp
	// build turns the submatches into an action, or ok=false when the
	// captured values fail validation (empty symbol, non-positive qty).
	build func(m []string) (domain.Action, bool)
}

func buyAction(symbol, qty string) (domain.Action, bool) {
	n, err := strconv.Atoi(qty)
	if err != nil || n <= 0 {
		return domain.Action{}, false
	}
	symbol = strings.ToUpper(strings.Trim(symbol, `"' `))
	if symbol == "" {
		return domain.Action{}, false
	}
	return domain.Action{Name: domain.ActionBuyStock, Symbol: symbol, Quantity: n}, true
}

func priceAction(symbol string) (domain.Action, bool) {
	symbol = strings.ToUpper(strings.Trim(symbol, `"' `))
	if symbol == "" {
		return domain.Action{}, false
	}
	return domain.Action{Name: domain.ActionGetStockPrice, Symbol: symbol}, true
}

// buyPatterns is the ordered priority list for buy_stock lines: call syntax
// first (positional, then keyword quantity, then fully keyword), then the
// two prose forms.
var buyPatterns = []linePattern{
	{
		name: "buy-positional",
		re:   regexp.MustCompile(`(?i)buy_stock\(\s*(?:"|')?` + symRe + `(?:"|')?\s*,\s*(\d+)\s*\)`),
		build: func(m []string) (domain.Action, bool) {
			return buyAction(m[1], m[2])
		},
	},
	{
		name: "buy-keyword-quantity",
		re:   regexp.MustCompile(`(?i)buy_stock\(\s*(?:"|')?` + symRe + `(?:"|')?\s*,\s*quantity\s*=\s*(\d+)\s*\)`),
		build: func(m []string) (domain.Action, bool) {
			return buyAction(m[1], m[2])
		},
	},
	{
		name: "buy-keyword-full",
		re:   regexp.MustCompile(`(?i)buy_stock\(\s*symbol\s*=\s*(?:"|')?` + symRe + `(?:"|')?\s*,\s*quantity\s*=\s*(\d+)\s*\)`),
		build: func(m []string) (domain.Action, bool) {
			return buyAction(m[1], m[2])
		},
	},
	{
		name: "buy-prose-shares-of",
		re:   regexp.MustCompile(`(?i)buy\s+(\d+)\s+shares?\s+of\s+([A-Z]+)`),
		build: func(m []string) (domain.Action, bool) {
			return buyAction(m[2], m[1])
		},
	},
	{
		name: "buy-prose-symbol-first",
		re:   regexp.MustCompile(`(?i)buy\s+([A-Z]+)\s+(\d+)\s+shares?`),
		build: func(m []string) (domain.Action, bool) {
			return buyAction(m[1], m[2])
		},
	},
}

// pricePatterns is the ordered priority list for get_stock_price lines.
var pricePatterns = []linePattern{
	{
		name: "price-positional",
		re:   regexp.MustCompile(`(?i)get_stock_price\(\s*(?:"|')?` + symRe + `(?:"|')?\s*\)`),
		build: func(m []string) (domain.Action, bool) {
			return priceAction(m[1])
		},
	},
	{
		name: "price-keyword",
		re:   regexp.MustCompile(`(?i)get_stock_price\(\s*symbol\s*=\s*(?:"|')?` + symRe + `(?:"|')?\s*\)`),
		build: func(m []string) (domain.Action, bool) {
			return priceAction(m[1])
		},
	},
}

var accountInfoRe = regexp.MustCompile(`(?i)get_account_info\(\s*\)`)

// Extract parses the <actions_taken> block of an interpreter response into
// ordered actions. Each line is classified independently against the buy,
// price, and account pattern families; within a family the first matching
// pattern wins. Lines that match nothing produce no action; captured values
// that fail validation are dropped and logged.
func Extract(response string, log *slog.Logger) []domain.Action {
	block := actionsBlockRe.FindStringSubmatch(response)
	if block == nil {
		log.Warn("no actions_taken block in response")
		return nil
	}

	var actions []domain.Action
	for _, line := range strings.Split(strings.TrimSpace(block[1]), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, p := range buyPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if a, ok := p.build(m); ok {
				actions = append(actions, a)
			} else {
				log.Warn("dropping invalid action", "pattern", p.name, "line", line)
			}
			break
		}

		for _, p := range pricePatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if a, ok := p.build(m); ok {
				actions = append(actions, a)
			} else {
				log.Warn("dropping invalid action", "pattern", p.name, "line", line)
			}
			break
		}

		if accountInfoRe.MatchString(line) {
			actions = append(actions, domain.Action{Name: domain.ActionGetAccountInfo})
		}
	}
	return actions
}
