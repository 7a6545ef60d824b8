package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "net/http/pprof" // profiling endpoint on the serve command

	"nftmarket_go/internal/adapters/memory"
	"nftmarket_go/internal/app"
	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/engine"
	"nftmarket_go/internal/event"
	"nftmarket_go/internal/feed"
)

var pprofAddr string

// serveCmd runs the marketplace engine and the event feed.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the marketplace engine and event feed",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	}
	serveCmd.Flags().StringVar(&pprofAddr, "pprof", "", "pprof listen address (disabled when empty)")
}

func runServe(cmd *cobra.Command, args []string) error {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(configFile); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	cfg := bootstrap.Config

	if pprofAddr != "" {
		go func() {
			slog.Info("pprof server started", slog.String("addr", pprofAddr))
			if err := http.ListenAndServe(pprofAddr, nil); err != nil {
				slog.Error("pprof server failed", slog.Any("error", err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// In-process capability adapters. Real deployments replace these
	// with adapters speaking to the actual asset registry and token
	// ledgers.
	account := domain.Account(cfg.Marketplace.Account)
	registry := memory.NewRegistry(account)
	bank := memory.NewBank()
	tokens := make(map[domain.TokenID]domain.FungibleToken)
	for _, id := range cfg.SupportedTokenIDs() {
		tokens[id] = memory.NewToken(account)
	}

	var feedSrv *feed.Server
	if cfg.Feed.Enabled {
		feedSrv = feed.NewServer(cfg.Feed.ListenAddr)
	}

	// Journal-first sink: an event that cannot be persisted halts the
	// process rather than letting the journal diverge from state.
	sink := func(ev event.Event) {
		if err := bootstrap.Storage.SaveEvent(ev); err != nil {
			panic(fmt.Sprintf("PERSISTENCE_FAILURE: %v", err))
		}
		if feedSrv != nil {
			feedSrv.Broadcast(ev)
		}
	}

	market, err := engine.New(engine.Config{
		Account:         account,
		Admin:           domain.Account(cfg.Marketplace.Admin),
		FeeBps:          cfg.Marketplace.FeeBps,
		SupportedTokens: cfg.SupportedTokenIDs(),
	}, registry, bank, tokens, sink)
	if err != nil {
		return err
	}

	if err := bootstrap.RestoreState(market); err != nil {
		return fmt.Errorf("journal replay failed: %w", err)
	}

	if feedSrv != nil {
		go func() {
			if err := feedSrv.Start(ctx); err != nil {
				slog.Error("event feed failed", slog.Any("error", err))
			}
		}()
	}

	slog.Info("marketplace operational",
		slog.Int64("fee_bps", market.FeeBps()),
		slog.Bool("feed", cfg.Feed.Enabled))

	<-ctx.Done()
	slog.Info("shutting down gracefully")
	return nil
}
