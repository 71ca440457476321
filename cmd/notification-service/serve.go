package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/notification-service/internal/app"
	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
	"github.com/gyaneshwarpardhi/notification-service/internal/telemetry"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Consume notification events and deliver them",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}

			// ── Load config ──────────────────────────────────────────────────
			loader, err := config.NewLoader(path)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := loader.Config()
			logger.Init(cfg.Log.Format, cfg.Log.Level)
			slog.Info("config loaded", "path", path, "version", version)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// ── Tracing ──────────────────────────────────────────────────────
			shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, version)
			if err != nil {
				return err
			}
			defer func() {
				tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(tctx); err != nil {
					slog.Warn("tracer shutdown", "err", err)
				}
			}()

			return app.Serve(ctx, loader)
		},
	}
	return cmd
}
