package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/shopspring/decimal"

	"aibroker/internal/credentials"
	"aibroker/internal/domain"
)

var tickerRe = regexp.MustCompile(`^[A-Z0-9.\-]+$`)

// PromptForInstruction reads one free-text instruction for the AI broker.
func PromptForInstruction() (string, error) {
	var input string
	prompt := &survey.Input{
		Message: "What would you like to do?",
		Help:    `For example: "Buy 10 shares of Apple", "What is TSLA trading at?", "Show my account".`,
	}
	if err := survey.AskOne(prompt, &input); err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// PromptForTicker reads and validates a ticker symbol.
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Ticker symbol:",
		Help:    "For example AAPL, MSFT, BRK.B.",
	}
	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if str == "" {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerRe.MatchString(str) {
			return fmt.Errorf("invalid ticker format (letters, numbers, dots, and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAlpacaCredentials collects and validates the Alpaca key pair and
// environment choice for the credential store.
func PromptForAlpacaCredentials() (apiKey, apiSecret string, paper bool, err error) {
	keyPrompt := &survey.Input{
		Message: "Alpaca API key ID:",
		Help:    "From the Alpaca dashboard. Paper and live keys are different.",
	}
	err = survey.AskOne(keyPrompt, &apiKey, survey.WithValidator(func(val interface{}) error {
		if !credentials.ValidAPIKey(strings.TrimSpace(val.(string))) {
			return fmt.Errorf("API key must be at least 12 uppercase letters/digits")
		}
		return nil
	}))
	if err != nil {
		return "", "", false, err
	}

	secretPrompt := &survey.Password{
		Message: "Alpaca API secret:",
	}
	err = survey.AskOne(secretPrompt, &apiSecret, survey.WithValidator(func(val interface{}) error {
		if !credentials.ValidAPISecret(strings.TrimSpace(val.(string))) {
			return fmt.Errorf("API secret must be at least 32 alphanumeric characters")
		}
		return nil
	}))
	if err != nil {
		return "", "", false, err
	}

	var env string
	envPrompt := &survey.Select{
		Message: "Trading environment:",
		Options: []string{"Paper trading (recommended)", "Live trading"},
		Default: "Paper trading (recommended)",
	}
	if err = survey.AskOne(envPrompt, &env); err != nil {
		return "", "", false, err
	}

	return strings.TrimSpace(apiKey), strings.TrimSpace(apiSecret), strings.HasPrefix(env, "Paper"), nil
}

// MenuChoice identifies one entry of the trader main menu.
type MenuChoice string

const (
	MenuAccount     MenuChoice = "Account info"
	MenuPositions   MenuChoice = "Open positions"
	MenuQuote       MenuChoice = "Get a quote"
	MenuPlaceOrder  MenuChoice = "Place an order"
	MenuListOrders  MenuChoice = "List orders"
	MenuCancelOrder MenuChoice = "Cancel an order"
	MenuCancelAll   MenuChoice = "Cancel all open orders"
	MenuJournal     MenuChoice = "Recent action journal"
	MenuConfigure   MenuChoice = "Configure credentials"
	MenuExit        MenuChoice = "Exit"
)

// PromptMainMenu shows the trader main menu.
func PromptMainMenu() (MenuChoice, error) {
	options := []string{
		string(MenuAccount), string(MenuPositions), string(MenuQuote),
		string(MenuPlaceOrder), string(MenuListOrders), string(MenuCancelOrder),
		string(MenuCancelAll), string(MenuJournal), string(MenuConfigure),
		string(MenuExit),
	}
	var choice string
	prompt := &survey.Select{
		Message:  "Main menu:",
		Options:  options,
		PageSize: len(options),
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", err
	}
	return MenuChoice(choice), nil
}

// PromptForOrder interactively builds a validated order request.
func PromptForOrder() (*domain.OrderRequest, error) {
	symbol, err := PromptForTicker()
	if err != nil {
		return nil, err
	}

	var side string
	if err := survey.AskOne(&survey.Select{
		Message: "Side:",
		Options: []string{string(domain.OrderSideBuy), string(domain.OrderSideSell)},
		Default: string(domain.OrderSideBuy),
	}, &side); err != nil {
		return nil, err
	}

	var orderType string
	if err := survey.AskOne(&survey.Select{
		Message: "Order type:",
		Options: []string{
			string(domain.OrderTypeMarket), string(domain.OrderTypeLimit),
			string(domain.OrderTypeStop), string(domain.OrderTypeStopLimit),
		},
		Default: string(domain.OrderTypeMarket),
	}, &orderType); err != nil {
		return nil, err
	}

	req := &domain.OrderRequest{
		Symbol:      symbol,
		Side:        domain.OrderSide(side),
		Type:        domain.OrderType(orderType),
		TimeInForce: domain.TimeInForceDay,
	}

	var sizing string
	if err := survey.AskOne(&survey.Select{
		Message: "Size by:",
		Options: []string{"Shares", "Dollar amount"},
		Default: "Shares",
	}, &sizing); err != nil {
		return nil, err
	}
	if sizing == "Shares" {
		qty, err := promptDecimal("Number of shares:")
		if err != nil {
			return nil, err
		}
		req.Qty = qty
	} else {
		notional, err := promptDecimal("Dollar amount:")
		if err != nil {
			return nil, err
		}
		req.Notional = notional
	}

	switch req.Type {
	case domain.OrderTypeLimit:
		if req.LimitPrice, err = promptDecimal("Limit price:"); err != nil {
			return nil, err
		}
	case domain.OrderTypeStop:
		if req.StopPrice, err = promptDecimal("Stop price:"); err != nil {
			return nil, err
		}
	case domain.OrderTypeStopLimit:
		if req.StopPrice, err = promptDecimal("Stop price:"); err != nil {
			return nil, err
		}
		if req.LimitPrice, err = promptDecimal("Limit price:"); err != nil {
			return nil, err
		}
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// PromptForOrderID reads the ID of an order to cancel.
func PromptForOrderID() (string, error) {
	var id string
	err := survey.AskOne(&survey.Input{Message: "Order ID:"}, &id, survey.WithValidator(survey.Required))
	return strings.TrimSpace(id), err
}

// PromptConfirm asks a yes/no question defaulting to no.
func PromptConfirm(message string) (bool, error) {
	var confirmed bool
	err := survey.AskOne(&survey.Confirm{Message: message, Default: false}, &confirmed)
	return confirmed, err
}

func promptDecimal(message string) (*decimal.Decimal, error) {
	var raw string
	err := survey.AskOne(&survey.Input{Message: message}, &raw, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("enter a number")
		}
		if f <= 0 {
			return fmt.Errorf("must be positive")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", raw, err)
	}
	return &d, nil
}
