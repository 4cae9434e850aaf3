// Package httptransport assembles the HTTP surface: per-module handlers,
// the shared middleware chain, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nameplate/internal/platform/metrics"
	"nameplate/internal/platform/middleware"
)

// Registrar is anything that mounts routes on the router. Every module
// handler implements it.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the middleware chain and mounts each module's routes.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	if m != nil {
		r.Use(m.Latency)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
