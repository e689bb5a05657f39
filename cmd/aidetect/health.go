package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aidetect/aidetect/internal/config"
	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/detector"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the detection service and report whether it is reachable.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHealth(ctx, cfg, cmd.OutOrStdout())
	},
}

func runHealth(ctx context.Context, cfg config.Config, out io.Writer) error {
	client, err := detector.NewClient(detector.Options{
		BaseURL:       cfg.DetectorURL,
		HealthTimeout: cfg.HealthTimeout,
	})
	if err != nil {
		return err
	}

	ctrl := controller.New(controller.Options{
		ID:       uuid.NewString(),
		Detector: client,
		Logger:   slog.New(slog.DiscardHandler),
	})
	defer ctrl.Close()

	ctrl.Probe()
	select {
	case <-ctrl.ProbeDone():
	case <-ctx.Done():
		return ctx.Err()
	}

	conn := ctrl.Snapshot().Connectivity
	fmt.Fprintf(out, "Backend: %s (%s)\n", conn, client.BaseURL())
	if conn != controller.ConnectivityConnected {
		return silentExit(1, errors.New("detection service unreachable"))
	}
	return nil
}
