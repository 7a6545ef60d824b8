package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nftmarket_go/internal/adapters/memory"
	"nftmarket_go/internal/app"
	"nftmarket_go/internal/domain"
	"nftmarket_go/internal/engine"
)

// replayCmd rebuilds ledger state from the event journal and dumps it
// as JSON. Useful for inspecting what a running daemon would restore.
var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild ledger state from the event journal and print it",
	RunE:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(configFile); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	cfg := bootstrap.Config

	account := domain.Account(cfg.Marketplace.Account)
	market, err := engine.New(engine.Config{
		Account:         account,
		Admin:           domain.Account(cfg.Marketplace.Admin),
		FeeBps:          cfg.Marketplace.FeeBps,
		SupportedTokens: cfg.SupportedTokenIDs(),
	}, memory.NewRegistry(account), memory.NewBank(), nil, nil)
	if err != nil {
		return err
	}

	if err := bootstrap.RestoreState(market); err != nil {
		return fmt.Errorf("journal replay failed: %w", err)
	}

	out, err := json.MarshalIndent(market.StateSnapshot(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
