package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetricsHandler serves the default registry, which the otel prometheus
// exporter writes saga metrics to
func NewMetricsHandler() http.Handler {
	return promhttp.Handler()
}
