package app

import (
	"context"

	"github.com/rs/zerolog"

	"tariff-compare/internal/config"
	"tariff-compare/internal/engine"
	"tariff-compare/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newEngine(store *storage.Store) *engine.Engine {
	opts := engine.Options{
		Builder:                  a.Config.BuilderConfig(),
		Filter:                   a.Config.FilterConfig(),
		Charges:                  a.Config.RegulatoryCharges(),
		IncludeRegulatoryCharges: a.Config.Engine.IncludeRegulatoryCharges,
		TopN:                     a.Config.Engine.TopN,
		ExclusiveRuns:            a.Config.Engine.ExclusiveRuns,
		StoreTimeout:             a.Config.Engine.StoreTimeout,
	}
	return engine.New(store, store, store, store, store, opts, a.Logger)
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting a comparison result.
type ExportOptions struct {
	UploadID  string
	PNGPath   string
	CSVPath   string
	MaxOffers int
}
