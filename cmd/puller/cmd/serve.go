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

	"github.com/vitaliisemenov/modelfleet/internal/blobstore"
	appconfig "github.com/vitaliisemenov/modelfleet/internal/config"
	"github.com/vitaliisemenov/modelfleet/internal/coordinator"
	"github.com/vitaliisemenov/modelfleet/internal/coordinatorclient"
	"github.com/vitaliisemenov/modelfleet/internal/httpserver"
	"github.com/vitaliisemenov/modelfleet/internal/puller"
	"github.com/vitaliisemenov/modelfleet/internal/statecache"
	"github.com/vitaliisemenov/modelfleet/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the artifact-puller HTTP server and reconciliation loop",
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

	p := &puller.Puller{
		Blobs:       blobs,
		Env:         cfg.Environment,
		LocalRoot:   cfg.LocalModelDirectory,
		ScratchRoot: cfg.TemporaryModelDownloadDirectory,
		Cache:       cache,
		CacheKey:    "default",
		Logger:      log,
	}

	coordClient := coordinatorclient.New(cfg.MasterURL)
	go coordClient.RunRegistrationLoop(ctx, string(coordinator.NodeTypeRemoteModelPuller), cfg.SelfTarget, cfg.RemoteModelPullFrequency, func(err error) {
		log.Warn("puller: failed to register with coordinator", "error", err)
	})
	defer func() {
		deregisterCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := coordClient.Deregister(deregisterCtx, string(coordinator.NodeTypeRemoteModelPuller), cfg.SelfTarget); err != nil {
			log.Warn("puller: failed to deregister from coordinator", "error", err)
		}
	}()

	go p.Run(ctx, cfg.RemoteModelPullFrequency)

	router := httpserver.New(httpserver.Config{Logger: log})
	handlers := &puller.Handlers{Puller: p}
	handlers.Mount(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort),
		Handler: router,
	}

	go func() {
		log.Info("puller: http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("puller: http server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("puller: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
