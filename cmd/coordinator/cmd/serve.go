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

	"github.com/vitaliisemenov/modelfleet/internal/audit"
	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	appconfig "github.com/vitaliisemenov/modelfleet/internal/config"
	"github.com/vitaliisemenov/modelfleet/internal/coordinator"
	"github.com/vitaliisemenov/modelfleet/internal/httpserver"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
	"github.com/vitaliisemenov/modelfleet/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the coordinator HTTP and WebSocket server",
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

	registry, err := coordinator.NewRegistry(cache)
	if err != nil {
		return err
	}

	s3Client, err := blobstore.NewS3Client(ctx, blobstore.ClientConfig{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
		UsePathStyle:    cfg.S3UsePathStyle,
	})
	if err != nil {
		return err
	}
	blobs := blobstore.NewS3Store(s3Client, cfg.S3Bucket)

	auditStore, err := audit.Open(ctx, audit.Config{
		Profile:       audit.Profile(cfg.AuditProfile),
		SQLitePath:    cfg.AuditSQLitePath,
		PostgresDSN:   cfg.AuditPostgresURL,
		MigrationsDir: cfg.AuditMigrationsPath,
	})
	if err != nil {
		return err
	}
	defer auditStore.Close()

	fanout := coordinator.NewFanout(10, 20, log)

	service := &coordinator.Service{
		Registry: registry,
		Fanout:   fanout,
		Blobs:    blobs,
		Audit:    auditStore,
		Env:      cfg.Environment,
		Logger:   log,
	}
	hub := coordinator.NewStateHub(log)
	go hub.Run(ctx, service, cfg.ConfigUpdateFrequency)

	router := httpserver.New(httpserver.Config{Logger: log, EnableDocs: true})
	handlers := &coordinator.Handlers{Service: service, Hub: hub}
	handlers.Mount(router)

	auditHandler := &audit.Handler{Store: auditStore}
	auditHandler.Mount(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("coordinator: http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("coordinator: http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("coordinator: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
