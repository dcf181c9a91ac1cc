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
	"syscall"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/joho/godotenv"

	"aibroker/internal/broker"
	"aibroker/internal/cli"
	"aibroker/internal/config"
	"aibroker/internal/credentials"
	"aibroker/internal/journal"
	"aibroker/internal/marketdata"
	"aibroker/internal/util"
)

// app bundles the trader's long-lived dependencies. The gateway and
// normalizer are rebuilt after the user reconfigures credentials.
type app struct {
	cfg        *config.Config
	store      *credentials.Store
	gateway    broker.Gateway
	normalizer *marketdata.Normalizer
	jnl        *journal.Journal
	log        *slog.Logger
}

func main() {
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

	configPath, keyPath := cfg.Storage.CredentialsPath, cfg.Storage.KeyPath
	if configPath == "" || keyPath == "" {
		configPath, keyPath, err = credentials.DefaultPaths()
		if err != nil {
			log.Fatalf("resolving credential paths: %v", err)
		}
	}

	a := &app{
		cfg:   cfg,
		store: credentials.NewStore(configPath, keyPath, logger),
		log:   logger,
	}
	a.rebuildGateway()

	journalPath := cfg.Storage.JournalPath
	if journalPath == "" {
		journalPath = filepath.Join(filepath.Dir(configPath), "journal.db")
	}
	if jnl, err := journal.Open(journalPath); err != nil {
		logger.Warn("action journal unavailable", "path", journalPath, "error", err)
	} else {
		defer jnl.Close()
		a.jnl = jnl
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Println(cli.Banner("trader", "Interactive Alpaca trading console."))

	for ctx.Err() == nil {
		choice, err := cli.PromptMainMenu()
		if err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return
			}
			logger.Error("menu prompt failed", "error", err)
			return
		}

		if choice == cli.MenuExit {
			return
		}
		if err := a.run(ctx, choice); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				// Back out to the menu on Ctrl-C inside a flow.
				continue
			}
			fmt.Println(cli.RenderError(err))
		}
	}
}

// rebuildGateway constructs the gateway and normalizer from config/env
// overrides or the encrypted store.
func (a *app) rebuildGateway() {
	key, secret, baseURL := a.cfg.Alpaca.APIKey, a.cfg.Alpaca.APISecret, a.cfg.Alpaca.BaseURL
	if key == "" || secret == "" {
		if creds, err := a.store.Load(); err == nil {
			key, secret, baseURL = creds.APIKey, creds.APISecret, creds.BaseURL
		} else if !errors.Is(err, credentials.ErrNotConfigured) {
			a.log.Error("loading stored credentials failed", "error", err)
		}
	}
	if baseURL == "" {
		baseURL = credentials.PaperBaseURL
	}
	a.gateway = broker.NewAlpacaGateway(key, secret, baseURL, a.log)
	a.normalizer = marketdata.NewNormalizer(
		marketdata.NewClient(key, secret, a.cfg.Alpaca.DataURL),
		a.gateway,
		a.log,
	)
}

func (a *app) run(ctx context.Context, choice cli.MenuChoice) error {
	switch choice {
	case cli.MenuAccount:
		acct, err := a.gateway.GetAccount(ctx)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderAccount(acct))

	case cli.MenuPositions:
		positions, err := a.gateway.GetPositions(ctx)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderPositions(positions))

	case cli.MenuQuote:
		symbol, err := cli.PromptForTicker()
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderQuote(a.normalizer.QuoteFor(ctx, symbol)))

	case cli.MenuPlaceOrder:
		req, err := cli.PromptForOrder()
		if err != nil {
			return err
		}
		res, err := a.gateway.SubmitOrder(ctx, *req)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderOrderResult(res))

	case cli.MenuListOrders:
		orders, err := a.gateway.ListOrders(ctx, "all", 50)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderOrders(orders))

	case cli.MenuCancelOrder:
		orderID, err := cli.PromptForOrderID()
		if err != nil {
			return err
		}
		if err := a.gateway.CancelOrder(ctx, orderID); err != nil {
			return err
		}
		fmt.Println(cli.RenderSuccess("Cancellation requested for " + orderID))

	case cli.MenuCancelAll:
		confirmed, err := cli.PromptConfirm("Cancel ALL open orders?")
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
		if err := a.gateway.CancelAllOrders(ctx); err != nil {
			return err
		}
		fmt.Println(cli.RenderSuccess("Cancellation requested for all open orders"))

	case cli.MenuJournal:
		if a.jnl == nil {
			return errors.New("action journal is not available")
		}
		records, err := a.jnl.ListRecent(ctx, 20)
		if err != nil {
			return err
		}
		fmt.Println(cli.RenderJournal(records))

	case cli.MenuConfigure:
		apiKey, apiSecret, paper, err := cli.PromptForAlpacaCredentials()
		if err != nil {
			return err
		}
		if err := a.store.SetAlpaca(apiKey, apiSecret, paper); err != nil {
			return err
		}
		a.rebuildGateway()
		fmt.Println(cli.RenderSuccess("Credentials saved and encrypted."))
	}
	return nil
}
