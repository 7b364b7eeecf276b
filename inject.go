package main

import (
	"net/http"

	"github.com/cheahjs/hf-image-proxy/internal/api"
	"github.com/cheahjs/hf-image-proxy/internal/config"
	"github.com/cheahjs/hf-image-proxy/internal/inference"
	"github.com/cheahjs/hf-image-proxy/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/samber/do"
)

func newInjector(cfg config.Config) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		},
	})

	do.ProvideValue[config.Config](injector, cfg)
	do.Provide[*http.Client](injector, func(i *do.Injector) (*http.Client, error) {
		return &http.Client{Timeout: do.MustInvoke[config.Config](i).UpstreamTimeout}, nil
	})
	do.Provide[*metrics.Metrics](injector, func(i *do.Injector) (*metrics.Metrics, error) {
		m := metrics.New()
		m.SetBuildInfo(version)
		return m, nil
	})
	do.Provide[api.Generator](injector, func(i *do.Injector) (api.Generator, error) {
		cfg := do.MustInvoke[config.Config](i)
		return inference.NewClient(
			do.MustInvoke[*http.Client](i),
			cfg.UpstreamURL,
			cfg.HFToken,
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})
	do.Provide[*api.Router](injector, func(i *do.Injector) (*api.Router, error) {
		return api.NewRouter(
			do.MustInvoke[config.Config](i),
			do.MustInvoke[api.Generator](i),
			do.MustInvoke[*metrics.Metrics](i),
		), nil
	})

	return injector
}
