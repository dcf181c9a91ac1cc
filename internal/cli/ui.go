package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"aibroker/internal/domain"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981")).
			Padding(0, 1).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#10B981")).
			Padding(1, 2)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	responseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)
)

// Banner renders the application banner.
func Banner(name, tagline string) string {
	return titleStyle.Render(name) + "\n" + valueStyle.Render(tagline) + "\n"
}

// RenderResponse wraps the broker response text in a bordered box, coloring
// error blocks red.
func RenderResponse(text string) string {
	if strings.Contains(text, "<error>") {
		return responseStyle.BorderForeground(lipgloss.Color("#EF4444")).Render(errorStyle.Render(text))
	}
	return responseStyle.Render(text)
}

// RenderError formats a terminal error line.
func RenderError(err error) string {
	return errorStyle.Render("error: " + err.Error())
}

// RenderSuccess formats a confirmation line.
func RenderSuccess(msg string) string {
	return successStyle.Render(msg)
}

// RenderAccount renders an account snapshot as a labeled box.
func RenderAccount(acct *domain.AccountSnapshot) string {
	var b strings.Builder
	row(&b, "Status", acct.Status)
	row(&b, "Equity", "$"+acct.Equity.StringFixed(2))
	row(&b, "Cash", "$"+acct.Cash.StringFixed(2))
	row(&b, "Buying Power", "$"+acct.BuyingPower.StringFixed(2))
	row(&b, "Day Trades", fmt.Sprintf("%d", acct.DaytradeCount))
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderQuote renders one normalized quote. Missing prices show the note
// instead of a number.
func RenderQuote(q domain.Quote) string {
	var b strings.Builder
	row(&b, "Symbol", q.Symbol)
	if q.Price != nil {
		row(&b, "Price", "$"+q.Price.StringFixed(2))
	} else {
		row(&b, "Price", warnStyle.Render("unavailable"))
	}
	if q.Change != nil {
		change := q.Change.StringFixed(2)
		if q.Change.Sign() >= 0 {
			row(&b, "Change", successStyle.Render("+"+change))
		} else {
			row(&b, "Change", errorStyle.Render(change))
		}
	}
	if q.Volume != nil {
		row(&b, "Volume", q.Volume.String())
	}
	if q.Timestamp != "" {
		row(&b, "As Of", q.Timestamp)
	}
	if q.Note != "" {
		row(&b, "Note", warnStyle.Render(q.Note))
	}
	if q.Error != "" {
		row(&b, "Error", errorStyle.Render(q.Error))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderPositions renders the open positions table.
func RenderPositions(positions []domain.Position) string {
	if len(positions) == 0 {
		return warnStyle.Render("No open positions.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %10s %12s %12s %12s\n", "SYMBOL", "QTY", "AVG ENTRY", "CURRENT", "UNREAL P/L")
	for _, p := range positions {
		fmt.Fprintf(&b, "%-8s %10s %12s %12s %12s\n",
			p.Symbol, p.Qty.String(), p.AvgEntryPrice.StringFixed(2),
			decimalOrDash(p.CurrentPrice), decimalOrDash(p.UnrealizedPL))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderOrders renders an order list.
func RenderOrders(orders []domain.OrderResult) string {
	if len(orders) == 0 {
		return warnStyle.Render("No orders.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-8s %-5s %-10s %-10s %10s\n", "ORDER ID", "SYMBOL", "SIDE", "TYPE", "STATUS", "QTY")
	for _, o := range orders {
		qty := "-"
		if o.Qty != nil {
			qty = o.Qty.String()
		}
		fmt.Fprintf(&b, "%-38s %-8s %-5s %-10s %-10s %10s\n",
			o.OrderID, o.Symbol, o.Side, o.Type, o.OrderStatus, qty)
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderOrderResult renders one submitted order outcome.
func RenderOrderResult(res *domain.OrderResult) string {
	var b strings.Builder
	row(&b, "Order ID", res.OrderID)
	row(&b, "Symbol", res.Symbol)
	row(&b, "Side", string(res.Side))
	row(&b, "Type", string(res.Type))
	row(&b, "Status", res.OrderStatus)
	if res.Qty != nil {
		row(&b, "Quantity", res.Qty.String())
	}
	if res.Notional != nil {
		row(&b, "Notional", "$"+res.Notional.StringFixed(2))
	}
	if res.LimitPrice != nil {
		row(&b, "Limit Price", "$"+res.LimitPrice.StringFixed(2))
	}
	if res.StopPrice != nil {
		row(&b, "Stop Price", "$"+res.StopPrice.StringFixed(2))
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderJournal renders recent journal entries.
func RenderJournal(records []domain.ActionRecord) string {
	if len(records) == 0 {
		return warnStyle.Render("No journaled actions yet.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-16s %-8s %6s %-8s %s\n", "AT", "ACTION", "SYMBOL", "QTY", "STATUS", "DETAIL")
	for _, r := range records {
		detail := r.OrderID
		if r.Message != "" {
			detail = r.Message
		}
		fmt.Fprintf(&b, "%-20s %-16s %-8s %6d %-8s %s\n",
			r.At.Format("2006-01-02 15:04:05"), r.Name, r.Symbol, r.Quantity, r.Status, detail)
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label+":") + " " + valueStyle.Render(value) + "\n")
}

func decimalOrDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}
