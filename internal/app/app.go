package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"

	"github.com/frankramblings/socialfusion/internal/actionstate"
	"github.com/frankramblings/socialfusion/internal/aggregator"
	"github.com/frankramblings/socialfusion/internal/aggregator/aggregatorimpl"
	"github.com/frankramblings/socialfusion/internal/capability"
	"github.com/frankramblings/socialfusion/internal/chat"
	"github.com/frankramblings/socialfusion/internal/pgx"
	"github.com/frankramblings/socialfusion/internal/platform"
	"github.com/frankramblings/socialfusion/internal/platform/blueskyimpl"
	"github.com/frankramblings/socialfusion/internal/platform/mastodonimpl"
	"github.com/frankramblings/socialfusion/internal/previewcache"
	repositories "github.com/frankramblings/socialfusion/internal/repositories/fx"
	"github.com/frankramblings/socialfusion/internal/timeline"
	"github.com/frankramblings/socialfusion/pkg/config"
	"github.com/frankramblings/socialfusion/pkg/logger"

	_ "github.com/frankramblings/socialfusion/internal/migrations"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	fx.Provide(
		fx.Annotate(
			mastodonimpl.New,
			fx.As(new(platform.Client)),
			fx.ResultTags(`group:"platforms"`),
		),
		fx.Annotate(
			blueskyimpl.New,
			fx.As(new(platform.Client)),
			fx.ResultTags(`group:"platforms"`),
		),
	),
	fx.Provide(
		timeline.NewEngine,
		actionstate.NewStore,
		capability.NewStore,
		chat.NewStream,
		previewcache.New,
		fx.Annotate(
			aggregatorimpl.New,
			fx.As(new(aggregator.Client)),
		),
	),
	repositories.Module,
	fx.Invoke(runMigrations),
	fx.Invoke(run),
)

func runMigrations(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "internal", "migrations"))
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config,
	agg aggregator.Client, caps *capability.Store) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {

			go startHttpServer(log, cfg)

			ctx := context.Background()
			if err := caps.Warm(ctx); err != nil {
				log.Error("Capability warm-up error", "Error", err)
			}

			if err := agg.ScheduleRefresh(ctx); err != nil {
				log.Error("Schedule refresh error", "Error", err)
				return err
			}
			if err := agg.ScheduleMaintenance(ctx); err != nil {
				log.Error("Schedule maintenance error", "Error", err)
				return err
			}

			go func() {
				if _, err := agg.RefreshTimeline(ctx); err != nil {
					log.Error("Initial refresh error", "Error", err)
				}
			}()

			return nil
		},
	})
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start: %v", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Info("Health check request received", "Method", r.Method, "URL", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "Error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
