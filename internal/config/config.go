package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultDetectorURL = "http://127.0.0.1:5000"
	defaultHTTPAddr    = ":8080"
)

type Config struct {
	DetectorURL         string        `env:"DETECTOR_URL" envDefault:"http://127.0.0.1:5000"`
	HTTPAddr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr         string        `env:"METRICS_ADDR"`
	HealthTimeout       time.Duration `env:"HEALTH_TIMEOUT" envDefault:"5s"`
	DetectTimeout       time.Duration `env:"DETECT_TIMEOUT" envDefault:"60s"`
	MaxUploadBytes      int64         `env:"MAX_UPLOAD_BYTES" envDefault:"16777216"`
	SessionIdleTTL      time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	PreviewMaxDimension int           `env:"PREVIEW_MAX_DIMENSION" envDefault:"480"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.DetectorURL = strings.TrimRight(strings.TrimSpace(cfg.DetectorURL), "/")
	if cfg.DetectorURL == "" {
		cfg.DetectorURL = defaultDetectorURL
	}
	if u, err := url.Parse(cfg.DetectorURL); err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, fmt.Errorf("DETECTOR_URL must be an absolute URL, got %q", cfg.DetectorURL)
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		return cfg, errors.New("MAX_UPLOAD_BYTES must be > 0")
	}
	if cfg.HealthTimeout < 0 || cfg.DetectTimeout < 0 {
		return cfg, errors.New("HEALTH_TIMEOUT and DETECT_TIMEOUT must not be negative")
	}

	return cfg, nil
}
