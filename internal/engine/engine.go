// Package engine runs the instruction pipeline: resolve symbols, snapshot
// the market, interpret the instruction, extract actions, dispatch them,
// and fold the actual results back into the response text.
package engine

import (
	"context"
	"log/slog"

	"aibroker/internal/actions"
	"aibroker/internal/domain"
	"aibroker/internal/interpreter"
	"aibroker/internal/symbols"
)

// Snapshotter supplies the market context for a set of symbols. The market
// data normalizer satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context, symbols []string) (*domain.MarketSnapshot, error)
}

// Executor dispatches extracted actions. *actions.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, acts []domain.Action) map[string]any
}

// Engine wires the pipeline stages together. Every dependency is passed in
// explicitly so each stage can be replaced in tests.
type Engine struct {
	market    Snapshotter
	completer interpreter.Completer
	executor  Executor
	log       *slog.Logger
}

// NewEngine creates an Engine over the given market source, completer, and
// action executor.
func NewEngine(market Snapshotter, completer interpreter.Completer, executor Executor, log *slog.Logger) *Engine {
	return &Engine{
		market:    market,
		completer: completer,
		executor:  executor,
		log:       log.With("component", "engine"),
	}
}

// ProcessInstruction runs one user instruction through the full pipeline
// and returns the response text to show the user. Pipeline failures come
// back as a tagged error block, never as an error return: the caller always
// has something renderable.
func (e *Engine) ProcessInstruction(ctx context.Context, userInput string) string {
	resolved := symbols.Resolve(userInput)
	e.log.Info("resolved symbols", "input", userInput, "symbols", resolved)

	snapshot, err := e.market.Snapshot(ctx, resolved)
	if err != nil {
		e.log.Error("market snapshot failed", "error", err)
		return interpreter.ErrorBlock(err)
	}

	prompt, err := interpreter.BuildPrompt(userInput, snapshot, symbols.CompanyMapping(resolved))
	if err != nil {
		e.log.Error("prompt build failed", "error", err)
		return interpreter.ErrorBlock(err)
	}

	response, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		e.log.Error("completion failed", "error", err)
		return interpreter.ErrorBlock(err)
	}

	acts := actions.Extract(response, e.log)
	e.log.Info("extracted actions", "count", len(acts))
	if len(acts) == 0 {
		return response
	}

	results := e.executor.Execute(ctx, acts)
	full, err := interpreter.AppendResults(response, results)
	if err != nil {
		e.log.Error("appending results failed", "error", err)
		return interpreter.ErrorBlock(err)
	}
	return full
}
