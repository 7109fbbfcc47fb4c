package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	Namespace = "livepeer"
	Subsystem = "sensor_aggregator"
)

// Factory registers every metric of the service on the default registerer,
// which is the one exposed by promhttp.Handler() on /metrics.
var Factory = promauto.With(prometheus.DefaultRegisterer)

func FQName(name string) string {
	return prometheus.BuildFQName(Namespace, Subsystem, name)
}
