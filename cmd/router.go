package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/angeloszaimis/random-image/internal/healthcheck"
	"github.com/angeloszaimis/random-image/internal/metrics"
)

func setupRouter(endpoint string, imageHandler http.Handler, monitor *healthcheck.Monitor, collector *metrics.Collector, source string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/health/counts", monitor.Handler())

	if collector != nil {
		r.Get("/metrics", collector.Handler(source))
	}

	r.Handle(endpoint, imageHandler)

	return r
}
