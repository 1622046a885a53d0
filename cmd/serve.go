package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/marquee/internal/models"
	"github.com/desertthunder/marquee/internal/server"
	"github.com/desertthunder/marquee/internal/watchlist"
	"github.com/sourcegraph/conc/pool"
	"github.com/urfave/cli/v3"
)

// Watch prints a line for every change until interrupted.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := r.syncOptions()
	if d := cmd.Duration("interval"); d > 0 {
		opts.Interval = d
	}

	unsubscribe := store.Subscribe(func(snap models.Snapshot) {
		r.writePlain("%s updated: %d titles, %d watched\n", store.Key(), snap.Stats.Total, snap.Stats.Watched)
	})
	defer unsubscribe()

	r.writePlain("Watching %s (%d titles). Press Ctrl+C to stop.\n", store.Key(), store.GetStats().Total)
	return watchlist.NewSyncer(store, opts).Run(ctx)
}

// Serve runs the HTTP surface alongside the cross-process syncer.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	store, err := r.Watchlist()
	if err != nil {
		return err
	}

	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Port = port
	}

	handler := server.NewWatchlistHandler(store, r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(handler)

	var root http.Handler = router
	if origin := cmd.String("cors-origin"); origin != "" {
		handler.SetOrigins(origin)
		root = server.CORS(origin)(router)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Addr(), root, r.logger)
	r.writePlain("Serving %s on http://%s\n", store.Key(), srv.Addr())

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		return srv.Run(ctx)
	})
	p.Go(func(ctx context.Context) error {
		return watchlist.NewSyncer(store, r.syncOptions()).Run(ctx)
	})

	if err := p.Wait(); err != nil {
		return fmt.Errorf("serve stopped: %w", err)
	}
	return nil
}
