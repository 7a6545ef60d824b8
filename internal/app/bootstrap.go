package app

import (
	"log/slog"

	"nftmarket_go/internal/engine"
	"nftmarket_go/internal/infra"
	"nftmarket_go/internal/infra/storage"
)

// Bootstrap orchestrates the startup sequence: configuration, logging,
// journal storage, and ledger state restoration.
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let the caller handle the error
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("bootstrapping",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version))

	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("journal database ready", slog.String("path", cfg.Storage.Path))

	if err := store.SaveMeta("app_version", cfg.App.Version); err != nil {
		slog.Warn("failed to record app version", slog.Any("error", err))
	}

	return nil
}

// RestoreState replays the event journal into the marketplace so the
// ledger resumes exactly where the last run committed.
func (b *Bootstrap) RestoreState(m *engine.Marketplace) error {
	events, err := b.Storage.LoadEvents()
	if err != nil {
		return err
	}
	for _, ev := range events {
		m.Replay(ev)
	}
	if len(events) > 0 {
		slog.Info("ledger state restored",
			slog.Int("events", len(events)),
			slog.Uint64("last_seq", events[len(events)-1].GetSeq()))
	}
	return nil
}
