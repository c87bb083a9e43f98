package casserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// requestsTotal counts served requests by method and status, the
// expansion's concrete instance of §4.11's "/metrics via client_golang",
// grounded on the teacher's pkg/metrics counter wiring.
var requestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dvs_server_requests_total",
		Help: "Total HTTP requests served by the DVS CAS server.",
	},
	[]string{"method", "status"},
)

func init() {
	prometheus.MustRegister(requestsTotal)
}

func metricsHandler() http.HandlerFunc {
	h := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}
