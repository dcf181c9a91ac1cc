// Package interpreter turns a user instruction plus market context into the
// model's structured broker response. The prompt pins the model to a fixed
// action vocabulary and an exact call syntax so the action extractor can
// parse the reply with plain pattern matching.
package interpreter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"aibroker/internal/domain"
)

// AvailableActions is the fixed list of operations the model may request,
// in the call-signature form embedded in every prompt.
var AvailableActions = []string{
	"buy_stock(symbol, quantity)",
	"get_stock_price(symbol)",
	"get_account_info()",
}

// Completer is the single-call LLM dependency: one prompt in, one
// completion text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ---------------------------------------------------------------------------
// Anthropic completer
// ---------------------------------------------------------------------------

var _ Completer = (*AnthropicCompleter)(nil)

// AnthropicCompleter calls the Anthropic Messages API with fixed sampling
// parameters. Failures are returned as-is and never retried.
type AnthropicCompleter struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	log         *slog.Logger
}

// NewAnthropicCompleter builds a completer for the given model and sampling
// parameters.
func NewAnthropicCompleter(apiKey, model string, maxTokens int, temperature float64, log *slog.Logger) *AnthropicCompleter {
	return &AnthropicCompleter{
		client:      anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:       model,
		maxTokens:   int64(maxTokens),
		temperature: temperature,
		log:         log.With("component", "interpreter"),
	}
}

// Complete sends one prompt and returns the first text block of the reply.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.log.Debug("calling completion API", "model", c.model, "promptLen", len(prompt))

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("completion returned no content blocks")
	}
	return message.Content[0].Text, nil
}

// ---------------------------------------------------------------------------
// Prompt construction
// ---------------------------------------------------------------------------

// BuildPrompt assembles the full interpreter prompt: available actions,
// market data, company-name mapping, the user's instruction, the always-buy
// rule, and the exact output format the extractor depends on.
func BuildPrompt(userInput string, snapshot *domain.MarketSnapshot, companyMapping map[string]string) (string, error) {
	marketJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding market data: %w", err)
	}
	mappingJSON, err := json.MarshalIndent(companyMapping, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding company mapping: %w", err)
	}

	var b strings.Builder
	b.WriteString(`You are an AI-powered financial broker assistant. Your role is to interpret user input, execute financial actions based on that input, and provide relevant information to the user. Follow these instructions carefully:

1. Available Actions:
<available_actions>
`)
	for _, a := range AvailableActions {
		b.WriteString(a)
		b.WriteString("\n")
	}
	b.WriteString(`</available_actions>

Review the list of available actions above. These are the only actions you are authorized to execute.
IMPORTANT: When executing actions, use the exact function call format:
- buy_stock(symbol, quantity) - Example: buy_stock("AAPL", 10)
- get_stock_price(symbol) - Example: get_stock_price("AAPL")
- get_account_info() - Example: get_account_info()

2. Market Data:
<market_data>
`)
	b.Write(marketJSON)
	b.WriteString(`
</market_data>

3. Company Name to Symbol Mapping:
<company_mapping>
`)
	b.Write(mappingJSON)
	b.WriteString(`
</company_mapping>

Use this mapping to understand when a user refers to a company by name rather than symbol.

4. Processing User Input:
When you receive user input, analyze it carefully to determine the user's intent. The user input will be provided in the following format:

<user_input>
`)
	b.WriteString(userInput)
	b.WriteString(`
</user_input>

5. IMPORTANT INSTRUCTION FOR BUY ORDERS:
If the user asks to buy a stock, you MUST execute the buy_stock() function call even if price data is unavailable. When the user asks to buy a stock:
- NEVER refuse to execute buy orders due to missing price data
- ALWAYS include buy_stock() in your actions_taken section exactly as shown
- Use the exact format: buy_stock("SYMBOL", QUANTITY)

6. Execution Logic:
- For any buy request like "Buy X shares of Y", you MUST execute buy_stock("Y", X)
- For requests to check stock prices, execute get_stock_price("SYMBOL")
- For requests about account information, execute get_account_info()
- Execute multiple actions when appropriate (e.g., checking price and then buying)

7. Output Format:
Present your response in the following format:

<broker_response>
<actions_taken>
[List the actions executed using the exact function call format]
</actions_taken>

<results>
[Provide the results of the actions and any relevant market data]
</results>

<additional_info>
[Include any other pertinent information or context]
</additional_info>
</broker_response>

Remember, our system allows trading stocks regardless of whether we have current price data. When a user wants to buy a stock, ALWAYS execute the buy_stock() function without hesitation or warning about missing price data.

When the user asks about a company by name (like "Analog Devices" instead of "ADI"), make sure to use the correct symbol in your response and acknowledge both the company name and symbol.

Always maintain a professional tone and be precise in your language.
`)
	return b.String(), nil
}

// ErrorBlock formats a processing failure in the same tagged shape as a
// normal broker response so callers render one thing.
func ErrorBlock(err error) string {
	return fmt.Sprintf(`<broker_response>
<error>
An error occurred while processing your request: %s
</error>
</broker_response>`, err)
}

// AppendResults attaches the dispatcher's actual results to the model's
// response text as a tagged JSON block.
func AppendResults(response string, results map[string]any) (string, error) {
	resultsJSON, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding results: %w", err)
	}
	return response + "\n\n<actual_results>\n" + string(resultsJSON) + "\n</actual_results>", nil
}
