// Package api serves the dataset pipeline over HTTP.
package api

import (
	"net/http"

	"trendsv1/internal/dataset"
	"trendsv1/internal/gateway"
	"trendsv1/internal/metrics"
	"trendsv1/internal/model"
)

// Deps are the collaborators behind the HTTP surface. Cache, Metrics and
// Hub are optional.
type Deps struct {
	Service *dataset.Service
	Cache   model.ResponseCache
	Metrics *metrics.Metrics
	Hub     *gateway.Hub
}

// NewRouter sets up every route and wraps them in the request middleware.
func NewRouter(d Deps) http.Handler {
	h := &handlers{svc: d.Service, cache: d.Cache, prom: d.Metrics}
	mux := http.NewServeMux()

	// Liveness only; dependency health is on the metrics server's /healthz.
	mux.HandleFunc("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/datasets", h.datasets)
	mux.HandleFunc("/api/data", h.data)
	mux.HandleFunc("/api/indexed", h.indexed)

	if d.Hub != nil {
		gateway.RegisterRoutes(mux, d.Hub)
	}
	return withRequest(mux, d.Metrics)
}
