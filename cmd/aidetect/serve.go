package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aidetect/aidetect/internal/config"
	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/detector"
	httpapp "github.com/aidetect/aidetect/internal/http"
	"github.com/aidetect/aidetect/internal/metrics"
	"github.com/aidetect/aidetect/internal/preview"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the detection web page.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{structuredLogAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg, slog.Default())
	},
}

func runServe(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	client, err := detector.NewClient(detector.Options{
		BaseURL:       cfg.DetectorURL,
		HealthTimeout: cfg.HealthTimeout,
		DetectTimeout: cfg.DetectTimeout,
	})
	if err != nil {
		return err
	}

	previews := preview.NewStore(cfg.PreviewMaxDimension)
	reg := controller.NewRegistry(controller.RegistryOptions{
		Detector: client,
		Previews: previews,
		Logger:   logger,
		IdleTTL:  cfg.SessionIdleTTL,
	})

	srv := httpapp.NewEchoServer(cfg, reg, previews, logger)
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	janitor := &controller.Janitor{Registry: reg, Interval: sweepInterval(cfg.SessionIdleTTL), Logger: logger}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr, "detector_url", client.BaseURL())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return metrics.Serve(gctx, cfg.MetricsAddr)
	})
	g.Go(func() error {
		return janitor.Run(gctx)
	})

	err = g.Wait()
	logger.Info("server stopped", "controllers", reg.Len())
	return err
}

// sweepInterval checks a few times per idle window, bounded to keep eviction timely without busy
// ticking.
func sweepInterval(idleTTL time.Duration) time.Duration {
	return lo.Clamp(idleTTL/4, 10*time.Second, 5*time.Minute)
}
