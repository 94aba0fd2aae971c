package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloodbank/internal/domain"
	"bloodbank/internal/platform/metrics"
)

// NewRouter wires all public endpoints.
func NewRouter(h *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(Recovery(h.logger))
	r.Use(RequestLogger(h.logger, m))

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.handleCreateRequest)
		r.Get("/", h.handleListRequests)
		r.Get("/{id}", h.handleGetRequest)
		r.Post("/{id}/approve", h.approve(domain.KindRequest))
		r.Post("/{id}/reject", h.reject(domain.KindRequest))
	})

	r.Route("/donations", func(r chi.Router) {
		r.Post("/", h.handleCreateDonation)
		r.Get("/", h.handleListDonations)
		r.Get("/{id}", h.handleGetDonation)
		r.Post("/{id}/approve", h.approve(domain.KindDonation))
		r.Post("/{id}/reject", h.reject(domain.KindDonation))
	})

	r.Route("/stock", func(r chi.Router) {
		r.Get("/", h.handleStockSnapshot)
		r.Get("/{group}", h.handleStockGroup)
		r.Put("/{group}", h.handleRestock)
	})

	r.Get("/stats", h.handleStats)

	return r
}
