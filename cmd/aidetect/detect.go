package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/aidetect/aidetect/internal/config"
	"github.com/aidetect/aidetect/internal/controller"
	"github.com/aidetect/aidetect/internal/detector"
	"github.com/aidetect/aidetect/internal/http/views"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const barWidth = 30

var detectJSON bool

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Classify one image file as real or AI-generated.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDetect(ctx, cfg, cmd.OutOrStdout(), args[0], detectJSON)
	},
}

func init() {
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "Print the outcome as JSON")
}

type detectOutput struct {
	File           string  `json:"file"`
	Backend        string  `json:"backend"`
	Classification string  `json:"classification,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// runDetect drives one controller through the health check, select and submit, then reports the outcome.
// The submit does not wait for the health check.
func runDetect(ctx context.Context, cfg config.Config, out io.Writer, path string, asJSON bool) error {
	img, err := loadImage(path)
	if err != nil {
		return err
	}

	client, err := detector.NewClient(detector.Options{
		BaseURL:       cfg.DetectorURL,
		HealthTimeout: cfg.HealthTimeout,
		DetectTimeout: cfg.DetectTimeout,
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
	if err := ctrl.SelectImage(img); err != nil {
		return err
	}
	done, err := ctrl.Submit()
	if err != nil {
		return err
	}

	// The health check never gates the submit; both are awaited only so the report is complete.
	for _, ch := range []<-chan struct{}{done, ctrl.ProbeDone()} {
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	snap := ctrl.Snapshot()
	result := detectOutput{
		File:    img.Filename,
		Backend: snap.Connectivity.String(),
		Error:   snap.Error,
	}
	if snap.Result != nil {
		result.Classification = snap.Result.Classification
		result.Confidence = snap.Result.Confidence
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printDetectText(out, snap)
	}

	if snap.State == controller.StateFailed {
		return silentExit(1, errors.New(snap.Error))
	}
	return nil
}

func printDetectText(out io.Writer, snap controller.Snapshot) {
	fmt.Fprintf(out, "Backend: %s\n", snap.Connectivity)
	if snap.Result == nil {
		fmt.Fprintf(out, "Error: %s\n", snap.Error)
		return
	}
	fmt.Fprintf(out, "Result: %s\n", snap.Result.Classification)
	fmt.Fprintf(out, "Confidence: %s\n", views.FormatConfidence(snap.Result.Confidence))
	if isTerminal(out) {
		fmt.Fprintln(out, confidenceBar(snap.Result.Confidence))
	}
}

func confidenceBar(confidence float64) string {
	if math.IsNaN(confidence) {
		confidence = 0
	}
	filled := int(math.Round(lo.Clamp(confidence, 0, 1) * barWidth))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadImage reads path and applies the same image/* filter as the page's file picker.
func loadImage(path string) (*detector.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &exitError{code: exitCodeUsage, err: fmt.Errorf("%s is not an image (%s)", path, contentType)}
	}
	return &detector.Image{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
