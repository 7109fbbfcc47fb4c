package readings

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang/glog"
	promClient "github.com/prometheus/client_golang/api"
	prometheus "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

type PrometheusOptions struct {
	Config promClient.Config
	// QueryFormat must contain exactly 1 %s directive where the sensor type is
	// replaced, e.g. `avg(sensor_value{sensor_type="%s"})`.
	QueryFormat string
	Step        time.Duration
}

type PrometheusSource struct {
	opts PrometheusOptions
	api  prometheus.API
}

func NewPrometheusSource(opts PrometheusOptions) (*PrometheusSource, error) {
	if opts.Step <= 0 {
		return nil, fmt.Errorf("prometheus step must be positive, got %s", opts.Step)
	}
	client, err := promClient.NewClient(opts.Config)
	if err != nil {
		return nil, fmt.Errorf("error creating prometheus client: %w", err)
	}
	api := prometheus.NewAPI(client)

	return &PrometheusSource{opts, api}, nil
}

func (p *PrometheusSource) FetchReadings(ctx context.Context, sensorType string, from, to time.Time) ([]Reading, error) {
	query := fmt.Sprintf(p.opts.QueryFormat, sensorType)
	value, warn, err := p.api.QueryRange(ctx, query, prometheus.Range{
		Start: from,
		End:   to,
		Step:  p.opts.Step,
	})
	if len(warn) > 0 {
		glog.Warningf("Prometheus query warnings: %q", warn)
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	if value.Type() != model.ValMatrix {
		return nil, fmt.Errorf("unexpected value type: %s", value.Type())
	}

	matrix := value.(model.Matrix)
	if len(matrix) > 1 {
		return nil, fmt.Errorf("unexpected series count: %d", len(matrix))
	} else if len(matrix) == 0 {
		return nil, nil
	}

	samples := matrix[0].Values
	if len(samples) > maxResultRows {
		return nil, errTooManyReadings()
	}
	readings := make([]Reading, 0, len(samples))
	for _, s := range samples {
		// 0/0 or rates over resets evaluate to non-finite values
		v := float64(s.Value)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		readings = append(readings, Reading{Timestamp: s.Timestamp.Time().UTC(), Value: v})
	}
	return readings, nil
}
