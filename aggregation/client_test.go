package aggregation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/livepeer/sensor-data/readings"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	readings []readings.Reading
	err      error

	calls      int
	sensorType string
	from, to   time.Time
}

func (s *stubSource) FetchReadings(ctx context.Context, sensorType string, from, to time.Time) ([]readings.Reading, error) {
	s.calls++
	s.sensorType, s.from, s.to = sensorType, from, to
	return s.readings, s.err
}

func TestAggregate(t *testing.T) {
	require := require.New(t)

	// given
	source := &stubSource{readings: readingsAt(0, 10, 1800, 20, 3600, 30, 5400, 40, 7200, 50)}
	client := NewClient(ClientOptions{}, source)

	// when
	points, err := client.Aggregate(context.Background(), "temperature", Hour, at(0), at(7200))

	// then
	require.NoError(err)
	require.Equal([]Point{
		{Timestamp: "2024-03-01 00:00:00", Value: 20},
		{Timestamp: "2024-03-01 01:00:00", Value: 0},
	}, points)
	require.Equal(1, source.calls)
	require.Equal("temperature", source.sensorType)
	require.Equal(at(0), source.from)
	require.Equal(at(7200), source.to)
}

func TestAggregateInvalidRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to time.Time
	}{
		{name: "reversed", from: at(3600), to: at(0)},
		{name: "empty", from: at(60), to: at(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			source := &stubSource{readings: readingsAt(0, 1, 60, 2)}
			client := NewClient(ClientOptions{}, source)

			points, err := client.Aggregate(context.Background(), "humidity", Minute, tt.from, tt.to)
			require.NoError(err)
			require.NotNil(points)
			require.Empty(points)
			require.Zero(source.calls)
		})
	}
}

func TestAggregateTooFewReadings(t *testing.T) {
	for _, rs := range [][]readings.Reading{nil, readingsAt(0, 42)} {
		require := require.New(t)

		client := NewClient(ClientOptions{}, &stubSource{readings: rs})
		points, err := client.Aggregate(context.Background(), "co2", Day, at(0), at(86400))

		require.NoError(err)
		require.NotNil(points)
		require.Empty(points)
	}
}

func TestAggregateSourceError(t *testing.T) {
	require := require.New(t)

	sourceErr := errors.New("clickhouse is down")
	client := NewClient(ClientOptions{}, &stubSource{err: sourceErr})

	_, err := client.Aggregate(context.Background(), "co2", Day, at(0), at(86400))
	require.ErrorIs(err, sourceErr)
	require.ErrorContains(err, "error fetching readings")
}

func TestAggregateUsesFoldOptions(t *testing.T) {
	require := require.New(t)

	source := &stubSource{readings: readingsAt(0, 10, 30, 20)}
	client := NewClient(ClientOptions{Fold: FoldOptions{UnseededWeight: true}}, source)

	points, err := client.Aggregate(context.Background(), "temperature", Hour, at(0), at(30))
	require.NoError(err)
	require.Equal([]Point{{Timestamp: "2024-03-01 00:00:00", Value: 10}}, points)
}

func TestParseGranularity(t *testing.T) {
	require := require.New(t)

	for _, g := range Granularities {
		parsed, err := ParseGranularity(string(g))
		require.NoError(err)
		require.Equal(g, parsed)
		require.Positive(parsed.Interval())
	}
	require.Equal(int64(3600), Hour.Interval())
	require.Equal(int64(86400), Day.Interval())

	_, err := ParseGranularity("fortnight")
	require.ErrorIs(err, ErrUnknownGranularity)
	require.Zero(Granularity("fortnight").Interval())
}
