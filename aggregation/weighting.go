package aggregation

import (
	"time"

	"github.com/livepeer/sensor-data/readings"
)

// WeightedSample is a reading together with the time, in whole seconds, that
// its value was held until the next reading replaced it.
type WeightedSample struct {
	Timestamp time.Time
	Value     float64
	Weight    float64
}

// WeightSamples pairs every reading with its successor and weights it by the
// elapsed time between them. The last reading only closes the hold period of
// the one before it, so n readings give n-1 samples.
func WeightSamples(rs []readings.Reading) []WeightedSample {
	if len(rs) < 2 {
		return nil
	}
	samples := make([]WeightedSample, 0, len(rs)-1)
	for i, next := range rs[1:] {
		curr := rs[i]
		samples = append(samples, WeightedSample{
			Timestamp: curr.Timestamp,
			Value:     curr.Value,
			Weight:    float64(elapsedSeconds(curr.Timestamp, next.Timestamp)),
		})
	}
	return samples
}

// elapsedSeconds is the absolute difference between a and b in whole seconds,
// truncating any fractional part.
func elapsedSeconds(a, b time.Time) int64 {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int64(diff / time.Second)
}
