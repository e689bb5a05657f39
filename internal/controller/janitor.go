package controller

import (
	"context"
	"log/slog"
	"time"
)

// Janitor periodically sweeps idle controllers out of a registry.
type Janitor struct {
	Registry *Registry
	Interval time.Duration
	// Logger defaults to the registry's logger.
	Logger *slog.Logger
}

func (j *Janitor) Run(ctx context.Context) error {
	if j.Registry == nil || j.Interval <= 0 {
		return nil
	}
	logger := j.Logger
	if logger == nil {
		logger = j.Registry.opts.Logger
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := j.Registry.Sweep(now); n > 0 {
				logger.Info("evicted idle controllers", "count", n, "remaining", j.Registry.Len())
			}
		}
	}
}
