package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheahjs/hf-image-proxy/internal/api"
	"github.com/cheahjs/hf-image-proxy/internal/config"
	"github.com/cheahjs/hf-image-proxy/internal/logx"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "hf-image-proxy",
		Short: "Text-to-image proxy for the Hugging Face Inference API",
		Long: `hf-image-proxy relays text-to-image requests to a Hugging Face
Inference API model and returns the generated image as base64.

Configuration is read from the environment (and an optional .env file):
  HF_TOKEN               Hugging Face access token (required for /generate)
  HF_API_URL             model endpoint
  LISTEN_ADDR            address to listen on
  LOG_LEVEL              trace, debug, info, warn, error, none
  UPSTREAM_TIMEOUT       timeout for inference calls, 0 for none
  CORS_ALLOWED_ORIGINS   comma separated browser origins`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, &cfg); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file to load if present")
	flags.String("addr", config.DefaultListenAddr, "address to listen on (overrides LISTEN_ADDR)")
	flags.String("upstream-url", config.DefaultUpstreamURL, "inference API model endpoint (overrides HF_API_URL)")
	flags.Duration("upstream-timeout", 0, "timeout for inference calls, 0 for none (overrides UPSTREAM_TIMEOUT)")
	flags.String("log-level", "info", "log level (overrides LOG_LEVEL)")
	flags.StringSlice("allowed-origins", config.DefaultAllowedOrigins, "allowed CORS origins (overrides CORS_ALLOWED_ORIGINS)")

	return cmd
}

// applyFlags overrides cfg with the flags set explicitly on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("addr") {
		cfg.ListenAddr, err = flags.GetString("addr")
	}
	if err == nil && flags.Changed("upstream-url") {
		cfg.UpstreamURL, err = flags.GetString("upstream-url")
	}
	if err == nil && flags.Changed("upstream-timeout") {
		cfg.UpstreamTimeout, err = flags.GetDuration("upstream-timeout")
	}
	if err == nil && flags.Changed("log-level") {
		cfg.LogLevel, err = flags.GetString("log-level")
	}
	if err == nil && flags.Changed("allowed-origins") {
		cfg.AllowedOrigins, err = flags.GetStringSlice("allowed-origins")
	}
	if err != nil {
		return err
	}
	return cfg.Validate()
}

func serve(ctx context.Context, cfg config.Config) error {
	logx.Configure(cfg.LogLevel)

	injector := newInjector(cfg)
	defer injector.Shutdown()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           do.MustInvoke[*api.Router](injector),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if !cfg.HasToken() {
		log.Warn().Msg("HF_TOKEN is not set, /generate will fail until it is configured")
	}
	if cfg.UpstreamTimeout == 0 {
		log.Info().Msg("No upstream timeout configured, inference calls may wait indefinitely")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.ListenAddr).
			Str("upstream", cfg.UpstreamURL).
			Strs("allowed_origins", cfg.AllowedOrigins).
			Str("version", version).
			Msg("Server is running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
