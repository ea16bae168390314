package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amarkiccha/lead/handler"
	"github.com/amarkiccha/lead/service"
)

const shutdownTimeout = 5 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE:  a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	loc, err := cfg.Capture.Location()
	if err != nil {
		return err
	}

	gateway := service.NewSheetsClient(&cfg.Sheets)
	directory := service.NewDirectory(gateway)

	var notifier service.Notifier = service.NopNotifier{}
	if cfg.Notify.Enabled() {
		notifier = service.NewResendNotifier(&cfg.Notify)
		slog.Info("new lead notifications enabled", "to", cfg.Notify.To)
	}

	var store service.ObjectStore
	if cfg.Minio.Enabled() {
		minioStore, err := service.NewMinioStore(&cfg.Minio)
		if err != nil {
			return err
		}
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return err
		}
		store = minioStore
		slog.Info("export storage enabled", "bucket", cfg.Minio.Bucket)
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Dependencies{
		Config:    cfg,
		Gateway:   gateway,
		Directory: directory,
		Notifier:  notifier,
		Store:     store,
		Location:  loc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := directory.Refresh(gctx); err != nil {
			slog.Warn("initial lead fetch failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server exited gracefully")
	return nil
}
