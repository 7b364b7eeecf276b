package api

import (
	"context"
	"net/http"

	"github.com/cheahjs/hf-image-proxy/internal/config"
	"github.com/cheahjs/hf-image-proxy/internal/inference"
	"github.com/cheahjs/hf-image-proxy/internal/metrics"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// Generator produces raw image bytes for an inference request.
type Generator interface {
	Generate(ctx context.Context, req inference.Request) ([]byte, error)
}

type Router struct {
	router    *mux.Router
	handler   http.Handler
	cfg       config.Config
	generator Generator
	metrics   *metrics.Metrics
}

// NewRouter wires the proxy routes. m may be nil, in which case no
// metrics are recorded and /metrics is not served.
func NewRouter(cfg config.Config, generator Generator, m *metrics.Metrics) *Router {
	r := mux.NewRouter()
	router := &Router{
		router:    r,
		cfg:       cfg,
		generator: generator,
		metrics:   m,
	}

	r.Use(requestLogger)
	r.HandleFunc("/generate", router.generateHandler).Methods(http.MethodPost)
	r.HandleFunc("/health", router.healthHandler).Methods(http.MethodGet)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	// CORS wraps the mux rather than going through r.Use: mux middleware
	// only runs for matched routes, so preflight requests would never reach it.
	router.handler = cors.Handler(corsOptions(cfg.AllowedOrigins))(r)

	return router
}

func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.handler.ServeHTTP(w, r)
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func (router *Router) record(outcome string) {
	if router.metrics != nil {
		router.metrics.RecordGenerate(outcome)
	}
}
