package aggregation

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultTimeFormat = "2006-01-02 15:04:05"

	valuePrecision = 2
	seedWeight     = 1

	// maxInterval is the widest interval, in seconds, a time.Duration can hold.
	maxInterval = int64(math.MaxInt64 / time.Second)
)

// Point is one aggregated bucket, ready to be charted.
type Point struct {
	Timestamp string  `json:"timestamp"`
	Value     float64 `json:"value"`
}

type FoldOptions struct {
	// TimeFormat is the layout of Point.Timestamp. Defaults to DefaultTimeFormat.
	TimeFormat string
	// Location the bucket starts are formatted in. Defaults to UTC.
	Location *time.Location

	// UnseededWeight starts every bucket with a total weight of 0 instead of
	// the historical virtual weight of 1.
	UnseededWeight bool
	// CarryBoundarySample folds the sample that closes a bucket into the next
	// one instead of dropping it.
	CarryBoundarySample bool
}

func (o FoldOptions) withDefaults() FoldOptions {
	if o.TimeFormat == "" {
		o.TimeFormat = DefaultTimeFormat
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

type bucket struct {
	start       time.Time
	weightedSum float64
	totalWeight float64
}

func (b *bucket) reset(start time.Time, opts FoldOptions) {
	b.start, b.weightedSum, b.totalWeight = start, 0, seedWeight
	if opts.UnseededWeight {
		b.totalWeight = 0
	}
}

func (b *bucket) add(s WeightedSample) {
	b.totalWeight += s.Weight
	b.weightedSum += s.Value * s.Weight
}

func (b *bucket) point(opts FoldOptions) Point {
	mean := 0.0
	if b.totalWeight != 0 {
		mean = b.weightedSum / b.totalWeight
	}
	return Point{
		Timestamp: b.start.In(opts.Location).Format(opts.TimeFormat),
		Value:     round(mean),
	}
}

// Bucket folds the ordered samples into buckets of interval seconds and
// returns one point per bucket.
//
// The first bucket starts at the first sample. A sample more than interval
// seconds after the current bucket start closes the bucket, and the next
// bucket starts exactly interval seconds after the closed one, whatever the
// timestamp of that sample. Unless opts.CarryBoundarySample is set the closing
// sample is not part of any bucket. A trailing point is always emitted for the
// open bucket, even if nothing was folded into it since the last close.
//
// A zero or negative interval is accepted and makes every sample that is not
// simultaneous with the bucket start close a bucket. Intervals wider than
// maxInterval are clamped to it.
func Bucket(samples []WeightedSample, interval int64, opts FoldOptions) []Point {
	if len(samples) == 0 {
		return []Point{}
	}
	opts = opts.withDefaults()

	var (
		points = make([]Point, 0, 1)
		step   = bucketStep(interval)
		curr   bucket
	)
	curr.reset(samples[0].Timestamp, opts)
	for _, s := range samples {
		if elapsedSeconds(curr.start, s.Timestamp) <= interval {
			curr.add(s)
			continue
		}

		points = append(points, curr.point(opts))
		curr.reset(curr.start.Add(step), opts)
		if opts.CarryBoundarySample {
			curr.add(s)
		}
	}

	return append(points, curr.point(opts))
}

func bucketStep(interval int64) time.Duration {
	if interval > maxInterval {
		interval = maxInterval
	}
	return time.Duration(interval) * time.Second
}

// round rounds v half away from zero to 2 decimal places. The float is first
// converted to its shortest decimal representation so that e.g. 1.005 gives
// 1.01 rather than the 1.00 of a binary multiply and round.
func round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(valuePrecision).InexactFloat64()
}
