package readings

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	prometheus "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/require"
)

type stubPromAPI struct {
	prometheus.API
	value model.Value
	err   error

	query string
	r     prometheus.Range
}

func (s *stubPromAPI) QueryRange(ctx context.Context, query string, r prometheus.Range, opts ...prometheus.Option) (model.Value, prometheus.Warnings, error) {
	s.query, s.r = query, r
	return s.value, nil, s.err
}

func TestPrometheusFetchReadings(t *testing.T) {
	require := require.New(t)

	// given
	api := &stubPromAPI{value: model.Matrix{{
		Metric: model.Metric{"sensor_type": "co2"},
		Values: []model.SamplePair{
			{Timestamp: model.TimeFromUnixNano(from.UnixNano()), Value: 410},
			{Timestamp: model.TimeFromUnixNano(from.Add(time.Minute).UnixNano()), Value: 415.5},
		},
	}}}
	source := &PrometheusSource{
		opts: PrometheusOptions{QueryFormat: `avg(sensor_value{sensor_type="%s"})`, Step: time.Minute},
		api:  api,
	}

	// when
	readings, err := source.FetchReadings(context.Background(), "co2", from, to)

	// then
	require.NoError(err)
	require.Equal(`avg(sensor_value{sensor_type="co2"})`, api.query)
	require.Equal(prometheus.Range{Start: from, End: to, Step: time.Minute}, api.r)
	require.Equal([]Reading{
		{Timestamp: from, Value: 410},
		{Timestamp: from.Add(time.Minute), Value: 415.5},
	}, readings)
}

func TestPrometheusFetchReadingsUnexpectedResults(t *testing.T) {
	tests := []struct {
		name   string
		value  model.Value
		err    error
		expErr string
	}{
		{
			name:   "query error",
			err:    errors.New("bad_data"),
			expErr: "query error: bad_data",
		},
		{
			name:   "vector instead of matrix",
			value:  model.Vector{},
			expErr: "unexpected value type: vector",
		},
		{
			name:   "multiple series",
			value:  model.Matrix{{}, {}},
			expErr: "unexpected series count: 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			source := &PrometheusSource{
				opts: PrometheusOptions{QueryFormat: "%s", Step: time.Minute},
				api:  &stubPromAPI{value: tt.value, err: tt.err},
			}

			_, err := source.FetchReadings(context.Background(), "noise", from, to)
			require.ErrorContains(err, tt.expErr)
		})
	}
}

func TestPrometheusFetchReadingsNoSeries(t *testing.T) {
	require := require.New(t)

	source := &PrometheusSource{
		opts: PrometheusOptions{QueryFormat: "%s", Step: time.Minute},
		api:  &stubPromAPI{value: model.Matrix{}},
	}
	readings, err := source.FetchReadings(context.Background(), "noise", from, to)
	require.NoError(err)
	require.Empty(readings)
}

func TestPrometheusFetchReadingsSkipsNonFiniteSamples(t *testing.T) {
	require := require.New(t)

	// given
	at := func(d time.Duration) model.Time { return model.TimeFromUnixNano(from.Add(d).UnixNano()) }
	api := &stubPromAPI{value: model.Matrix{{
		Values: []model.SamplePair{
			{Timestamp: at(0), Value: model.SampleValue(math.NaN())},
			{Timestamp: at(time.Minute), Value: 2},
			{Timestamp: at(2 * time.Minute), Value: model.SampleValue(math.Inf(1))},
			{Timestamp: at(3 * time.Minute), Value: model.SampleValue(math.Inf(-1))},
			{Timestamp: at(4 * time.Minute), Value: 3},
		},
	}}}
	source := &PrometheusSource{
		opts: PrometheusOptions{QueryFormat: "%s", Step: time.Minute},
		api:  api,
	}

	// when
	readings, err := source.FetchReadings(context.Background(), "light", from, to)

	// then
	require.NoError(err)
	require.Equal([]Reading{
		{Timestamp: from.Add(time.Minute), Value: 2},
		{Timestamp: from.Add(4 * time.Minute), Value: 3},
	}, readings)
}
