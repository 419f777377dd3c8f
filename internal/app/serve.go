package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tariff-compare/internal/scheduler"
	"tariff-compare/internal/server"
)

// Serve runs the HTTP API, plus the retention sweep when enabled, until
// interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	eng := a.newEngine(store)
	srv := server.New(eng, store, store, a.Config.Engine.SurfacedN, a.Logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.Serve(groupCtx, a.Config.Server)
	})

	if a.Config.Retention.Enabled {
		sched := scheduler.New(scheduler.Options{
			Interval:   a.Config.Retention.Sweep,
			RunOnStart: true,
		}, a.Logger)
		group.Go(func() error {
			return sched.Run(groupCtx, func(sweepCtx context.Context) error {
				cutoff := time.Now().UTC().Add(-a.Config.Retention.MaxAge)
				pruned, err := store.DeleteCalculationLogBefore(sweepCtx, cutoff)
				if err != nil {
					return err
				}
				if pruned > 0 {
					a.Logger.Info().Int64("pruned", pruned).Time("cutoff", cutoff).Msg("calculation log pruned")
				}
				return nil
			})
		})
	}

	a.Logger.Info().Msg("starting comparison service")
	err = group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("comparison service stopped")
	return nil
}
