package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

// DefaultUpstreamURL is the hosted FLUX.1-dev endpoint on the Hugging Face Inference API.
const DefaultUpstreamURL = "https://api-inference.huggingface.co/models/black-forest-labs/FLUX.1-dev"

const DefaultListenAddr = "0.0.0.0:8000"

// DefaultAllowedOrigins are the browser origins allowed to call the proxy.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"https://www.alifalrazi.com/projectslist/textToImage",
}

// Config holds all configuration for the proxy. It is built once at
// startup and passed by value; nothing mutates it afterwards.
type Config struct {
	HFToken         string
	UpstreamURL     string
	UpstreamTimeout time.Duration
	ListenAddr      string
	LogLevel        string
	AllowedOrigins  []string
}

// HasToken reports whether an upstream credential is configured.
func (c Config) HasToken() bool {
	return c.HFToken != ""
}

// LoadDotEnv loads a .env file into the process environment. A missing
// file is not an error; variables already set in the environment win.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset. An absent HF_TOKEN is not an error: the
// proxy starts in a degraded state and reports it through /health.
func FromEnv() (Config, error) {
	cfg := Config{
		HFToken:        strings.TrimSpace(os.Getenv("HF_TOKEN")),
		UpstreamURL:    envOr("HF_API_URL", DefaultUpstreamURL),
		ListenAddr:     envOr("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		AllowedOrigins: DefaultAllowedOrigins,
	}

	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid UPSTREAM_TIMEOUT %q: %w", v, err)
		}
		cfg.UpstreamTimeout = timeout
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = SplitList(v)
	}

	return cfg, cfg.Validate()
}

// Validate checks values that would make the proxy unusable. The token
// is deliberately not checked here.
func (c Config) Validate() error {
	if c.UpstreamURL == "" {
		return errors.New("upstream URL is required")
	}
	if c.UpstreamTimeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative, got %s", c.UpstreamTimeout)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	return nil
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	items := lo.Map(strings.Split(v, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	return lo.Compact(items)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
