package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/sensor-data/metrics"
	"github.com/livepeer/sensor-data/readings"
	"github.com/prometheus/client_golang/prometheus"
)

var ErrInvalidRange = errors.New("the date range is invalid")

var (
	aggregateRequests = metrics.Factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.FQName("aggregate_requests_total"),
			Help: "Number of aggregation requests by sensor type, granularity and outcome",
		},
		[]string{"sensor_type", "granularity", "outcome"},
	)
	readingsFetched = metrics.Factory.NewSummary(
		prometheus.SummaryOpts{
			Name: metrics.FQName("readings_fetched"),
			Help: "Number of raw readings fetched from the source per aggregation request",
		},
	)
	foldDuration = metrics.Factory.NewSummary(
		prometheus.SummaryOpts{
			Name: metrics.FQName("fold_duration_seconds"),
			Help: "Time spent weighting and bucketing the readings of a request, in seconds",
		},
	)
)

type ClientOptions struct {
	Fold FoldOptions
}

// Client aggregates the readings of a Source into charting series. It keeps no
// state between calls and is safe for concurrent use as long as the source is.
type Client struct {
	opts   ClientOptions
	source readings.Source
}

func NewClient(opts ClientOptions, source readings.Source) *Client {
	return &Client{opts, source}
}

// Aggregate returns the time-weighted average of the sensorType readings
// between from and to, bucketed by granularity. An invalid range or a range
// with fewer than 2 readings yields an empty series, never an error; only
// failures of the readings source are returned.
func (c *Client) Aggregate(ctx context.Context, sensorType string, granularity Granularity, from, to time.Time) ([]Point, error) {
	samples, err := c.weightedSamples(ctx, sensorType, from, to)
	if errors.Is(err, ErrInvalidRange) {
		aggregateRequests.WithLabelValues(sensorType, string(granularity), "invalid_range").Inc()
		fold := c.opts.Fold.withDefaults()
		glog.Infof("Invalid datetime range: %s - %s",
			from.In(fold.Location).Format(fold.TimeFormat), to.In(fold.Location).Format(fold.TimeFormat))
		return []Point{}, nil
	} else if err != nil {
		aggregateRequests.WithLabelValues(sensorType, string(granularity), "error").Inc()
		return nil, err
	}

	if len(samples) == 0 {
		aggregateRequests.WithLabelValues(sensorType, string(granularity), "empty").Inc()
		return []Point{}, nil
	}

	start := time.Now()
	points := Bucket(samples, granularity.Interval(), c.opts.Fold)
	foldDuration.Observe(time.Since(start).Seconds())

	aggregateRequests.WithLabelValues(sensorType, string(granularity), "ok").Inc()
	glog.V(6).Infof("Aggregated readings sensorType=%s granularity=%s samples=%d points=%d", sensorType, granularity, len(samples), len(points))
	return points, nil
}

func (c *Client) weightedSamples(ctx context.Context, sensorType string, from, to time.Time) ([]WeightedSample, error) {
	if !from.Before(to) {
		return nil, ErrInvalidRange
	}

	rs, err := c.source.FetchReadings(ctx, sensorType, from, to)
	if err != nil {
		return nil, fmt.Errorf("error fetching readings: %w", err)
	}
	readingsFetched.Observe(float64(len(rs)))

	return WeightSamples(rs), nil
}
