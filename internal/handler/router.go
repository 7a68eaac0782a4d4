package handler

import (
	"net/http"

	"anonchat/internal/domain"
	"anonchat/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewOpsRouter serves the health, readiness and metrics endpoints
func NewOpsRouter(store domain.Store) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Metrics())

	r.Get("/health", Health)
	r.Get("/health/ready", Ready(store))
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	return r
}
