package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpReqCount = Factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: FQName("http_requests_total"),
			Help: "Number of HTTP requests served, by API and response code",
		},
		[]string{"code", "method", "api"},
	)
	httpReqDuration = Factory.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       FQName("http_request_duration_sec"),
			Help:       "Request duration of HTTP requests in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"code", "method", "api"},
	)
	httpReqInFlight = Factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: FQName("http_request_in_flight"),
			Help: "Number of current requests in-flight for the specific API",
		},
		[]string{"api"},
	)
)

// ObservedHandler wraps handler with the request count, duration and in-flight
// instrumentation, all labeled with apiName.
func ObservedHandler(apiName string, handler http.Handler) http.Handler {
	apiLabel := prometheus.Labels{"api": apiName}
	handler = promhttp.InstrumentHandlerCounter(
		httpReqCount.MustCurryWith(apiLabel),
		handler)
	handler = promhttp.InstrumentHandlerDuration(
		httpReqDuration.MustCurryWith(apiLabel),
		handler)
	return promhttp.InstrumentHandlerInFlight(
		httpReqInFlight.WithLabelValues(apiName),
		handler)
}
