package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gyaneshwarpardhi/notification-service/internal/api"
	"github.com/gyaneshwarpardhi/notification-service/internal/config"
	"github.com/gyaneshwarpardhi/notification-service/internal/engine"
	"github.com/gyaneshwarpardhi/notification-service/internal/logger"
	"github.com/gyaneshwarpardhi/notification-service/internal/metrics"
	"github.com/gyaneshwarpardhi/notification-service/internal/queue"
)

// Serve runs the service until ctx is cancelled or a component fails to
// start, then shuts down: sources stop reading, the engine drains what it
// already accepted, and the ops server closes.
func Serve(ctx context.Context, loader *config.Loader) error {
	cfg := loader.Config()

	// ── Router + engine ──────────────────────────────────────────────────────
	r, err := BuildRouter(cfg)
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	eng := engine.New(r, cfg.Engine)
	slog.Info("engine started",
		"workers", cfg.Engine.Workers,
		"queue_depth", cfg.Engine.QueueDepth,
		"strategy", cfg.Dispatch.Strategy,
	)

	// ── Hot-reload watcher ───────────────────────────────────────────────────
	loader.OnChange(func(newCfg *config.Config) {
		next, err := BuildRouter(newCfg)
		if err != nil {
			metrics.ConfigReloads.WithLabelValues("error").Inc()
			slog.Warn("hot-reload skipped: router build failed", "err", err)
			return
		}
		logger.Init(newCfg.Log.Format, newCfg.Log.Level)
		eng.SwapRouter(next)
		metrics.ConfigReloads.WithLabelValues("success").Inc()
		slog.Info("router hot-reloaded", "strategy", newCfg.Dispatch.Strategy)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── Queue sources ────────────────────────────────────────────────────────
	sources, err := BuildSources(cfg.Queue)
	if err != nil {
		_ = eng.Shutdown(context.Background())
		return err
	}

	// ── Ops HTTP server ──────────────────────────────────────────────────────
	var srv *http.Server
	if cfg.Server.Addr != "" {
		srv = &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      api.New(eng, loader),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		g.Go(func() error {
			slog.Info("queue source started", "source", src.Name())
			if err := src.Run(gctx, eng); err != nil {
				return fmt.Errorf("%s source: %w", src.Name(), err)
			}
			return nil
		})
	}
	if srv != nil {
		g.Go(func() error {
			slog.Info("server starting", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	shutdownTimeout := time.Duration(cfg.Engine.ShutdownTimeoutMs) * time.Millisecond
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down…")
		if srv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}
		return nil
	})

	runErr := g.Wait()
	for _, src := range sources {
		if err := src.Close(); err != nil {
			slog.Warn("closing queue source", "source", src.Name(), "err", err)
		}
	}
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := eng.Shutdown(shutCtx); err != nil {
		slog.Warn("engine did not drain before timeout", "err", err)
	}
	slog.Info("goodbye")
	return runErr
}

// BuildSources creates the enabled queue sources.
func BuildSources(q config.QueueConf) ([]queue.Source, error) {
	var sources []queue.Source
	if q.Kafka.Enabled {
		s, err := queue.NewKafkaSource(q.Kafka)
		if err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	if q.NATS.Enabled {
		s, err := queue.NewNATSSource(q.NATS)
		if err != nil {
			for _, prev := range sources {
				_ = prev.Close()
			}
			return nil, err
		}
		sources = append(sources, s)
	}
	if len(sources) == 0 {
		return nil, errors.New("no queue source enabled")
	}
	return sources, nil
}
