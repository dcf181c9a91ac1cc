package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/joho/godotenv"

	"aibroker/internal/actions"
	"aibroker/internal/broker"
	"aibroker/internal/cli"
	"aibroker/internal/config"
	"aibroker/internal/credentials"
	"aibroker/internal/engine"
	"aibroker/internal/interpreter"
	"aibroker/internal/journal"
	"aibroker/internal/marketdata"
	"aibroker/internal/util"
)

func main() {
	// .env is optional; system environment wins either way.
	_ = godotenv.Load()

	cfgPath := "config/aibroker.yaml"
	if p := os.Getenv("AIBROKER_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	if cfg.Anthropic.APIKey == "" {
		log.Fatal("no Anthropic API key configured (set ANTHROPIC_API_KEY or anthropic.api_key in config)")
	}

	alpacaKey, alpacaSecret, alpacaBaseURL := resolveAlpacaCredentials(cfg, logger)
	if alpacaKey == "" {
		logger.Warn("no Alpaca credentials configured; brokerage actions will fail until set up via the trader tool")
	}

	gateway := broker.NewAlpacaGateway(alpacaKey, alpacaSecret, alpacaBaseURL, logger)
	normalizer := marketdata.NewNormalizer(
		marketdata.NewClient(alpacaKey, alpacaSecret, cfg.Alpaca.DataURL),
		gateway,
		logger,
	)
	completer := interpreter.NewAnthropicCompleter(
		cfg.Anthropic.APIKey, cfg.Anthropic.Model,
		cfg.Anthropic.MaxTokens, *cfg.Anthropic.Temperature,
		logger,
	)

	var recorder actions.Recorder
	if path := journalPath(cfg, logger); path != "" {
		jnl, err := journal.Open(path)
		if err != nil {
			logger.Warn("action journal unavailable", "path", path, "error", err)
		} else {
			defer jnl.Close()
			recorder = jnl
		}
	}

	dispatcher := actions.NewDispatcher(gateway, normalizer, recorder, logger)
	eng := engine.NewEngine(normalizer, completer, dispatcher, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println(cli.Banner("aibroker", "AI-assisted trading assistant. Type 'exit' to quit."))

	for {
		if ctx.Err() != nil {
			return
		}

		input, err := cli.PromptForInstruction()
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return
			}
			logger.Error("reading instruction failed", "error", err)
			return
		}
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit":
			return
		}

		fmt.Println(cli.RenderResponse(eng.ProcessInstruction(ctx, input)))
	}
}

// resolveAlpacaCredentials prefers env/config values and falls back to the
// encrypted credential store.
func resolveAlpacaCredentials(cfg *config.Config, logger *slog.Logger) (key, secret, baseURL string) {
	if cfg.Alpaca.APIKey != "" && cfg.Alpaca.APISecret != "" {
		baseURL = cfg.Alpaca.BaseURL
		if baseURL == "" {
			baseURL = credentials.PaperBaseURL
		}
		return cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, baseURL
	}

	configPath, keyPath := storagePaths(cfg, logger)
	if configPath == "" {
		return "", "", ""
	}
	store := credentials.NewStore(configPath, keyPath, logger)
	creds, err := store.Load()
	if err != nil {
		if !errors.Is(err, credentials.ErrNotConfigured) {
			logger.Error("loading stored credentials failed", "error", err)
		}
		return "", "", ""
	}
	return creds.APIKey, creds.APISecret, creds.BaseURL
}

// storagePaths returns the credential file locations from config, falling
// back to the per-user defaults.
func storagePaths(cfg *config.Config, logger *slog.Logger) (configPath, keyPath string) {
	if cfg.Storage.CredentialsPath != "" && cfg.Storage.KeyPath != "" {
		return cfg.Storage.CredentialsPath, cfg.Storage.KeyPath
	}
	configPath, keyPath, err := credentials.DefaultPaths()
	if err != nil {
		logger.Error("resolving credential paths failed", "error", err)
		return "", ""
	}
	return configPath, keyPath
}

// journalPath returns the journal database location, defaulting to the same
// directory as the credential store.
func journalPath(cfg *config.Config, logger *slog.Logger) string {
	if cfg.Storage.JournalPath != "" {
		return cfg.Storage.JournalPath
	}
	configPath, _ := storagePaths(cfg, logger)
	if configPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(configPath), "journal.db")
}
