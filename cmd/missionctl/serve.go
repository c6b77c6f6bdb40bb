package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahoque32/mission-control-dashboard-sub001/internal/config"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/feed"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/policy"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/repository"
	"github.com/ahoque32/mission-control-dashboard-sub001/internal/service"
	transport "github.com/ahoque32/mission-control-dashboard-sub001/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// newServeCmd creates the "missionctl serve" subcommand.
func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the mission control API",
		Long:  "Serves the JSON API and the activity feed until interrupted.\nSettings come from the optional YAML file, then the environment.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	return cmd
}

// serve runs the hub and the HTTP server until ctx is done or either fails.
func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting mission control",
		zap.Int("port", cfg.HTTPPort),
		zap.String("driver", cfg.Database.Driver),
		zap.String("database", cfg.Database.URL),
		zap.String("model_override", cfg.ModelOverride))

	// Initialize store
	store, err := repository.NewSQLiteStore(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close()

	// Initialize policy engine
	engine, err := policy.NewEngineFromFile(ctx, cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	hub := feed.NewHub(logger.Named("feed"))
	svc := service.New(store, engine, hub, cfg, logger.Named("service"))
	e := transport.NewServer(svc, feed.NewServer(cfg.Feed, hub, logger.Named("feed")), cfg.RequestTimeout, logger.Named("http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("api listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down mission control")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("mission control stopped")
	return nil
}
