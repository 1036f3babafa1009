package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/vitaliisemenov/modelfleet/internal/config"
	"github.com/vitaliisemenov/modelfleet/internal/coordinator"
	"github.com/vitaliisemenov/modelfleet/internal/coordinatorclient"
	"github.com/vitaliisemenov/modelfleet/internal/engineclient"
	"github.com/vitaliisemenov/modelfleet/internal/httpserver"
	"github.com/vitaliisemenov/modelfleet/internal/servingconfig"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
	"github.com/vitaliisemenov/modelfleet/internal/synchronizer"
	"github.com/vitaliisemenov/modelfleet/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the synchronizer HTTP server and reconciliation loop",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := appconfig.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := statecache.Open(cfg.StateCacheFile)
	if err != nil {
		return err
	}
	defer cache.Close()

	engine, err := engineclient.Dial(cfg.TensorflowServingGRPCTarget, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	engineView, err := synchronizer.NewEngineViewBuilder(engine, log)
	if err != nil {
		return err
	}

	sync := &synchronizer.Synchronizer{
		ConfigStore: servingconfig.NewStore(cfg.TensorflowServingConfigFile),
		EngineView:  engineView,
		LocalRoot:   cfg.LocalModelDirectory,
		Cache:       cache,
		CacheKey:    "default",
		Logger:      log,
	}

	coordClient := coordinatorclient.New(cfg.MasterURL)
	go coordClient.RunRegistrationLoop(ctx, string(coordinator.NodeTypeConfigManager), cfg.SelfTarget, cfg.ConfigUpdateFrequency, func(err error) {
		log.Warn("synchronizer: failed to register with coordinator", "error", err)
	})
	defer func() {
		deregisterCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := coordClient.Deregister(deregisterCtx, string(coordinator.NodeTypeConfigManager), cfg.SelfTarget); err != nil {
			log.Warn("synchronizer: failed to deregister from coordinator", "error", err)
		}
	}()

	go sync.Run(ctx, cfg.ConfigUpdateFrequency)

	router := httpserver.New(httpserver.Config{Logger: log})
	handlers := &synchronizer.Handlers{Sync: sync}
	handlers.Mount(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("synchronizer: http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("synchronizer: http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("synchronizer: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
