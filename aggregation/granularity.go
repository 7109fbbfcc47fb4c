package aggregation

import (
	"errors"
	"fmt"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

// Granularity is the named width of the aggregation buckets.
type Granularity string

const (
	Minute      Granularity = "minute"
	QuarterHour Granularity = "quarter-hour"
	Hour        Granularity = "hour"
	SixHours    Granularity = "six-hours"
	Day         Granularity = "day"
	Week        Granularity = "week"
)

var granularityIntervals = map[Granularity]int64{
	Minute:      60,
	QuarterHour: 15 * 60,
	Hour:        60 * 60,
	SixHours:    6 * 60 * 60,
	Day:         24 * 60 * 60,
	Week:        7 * 24 * 60 * 60,
}

// Granularities lists the supported options from the finest to the coarsest.
var Granularities = []Granularity{Minute, QuarterHour, Hour, SixHours, Day, Week}

func ParseGranularity(str string) (Granularity, error) {
	g := Granularity(str)
	if _, ok := granularityIntervals[g]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownGranularity, str)
	}
	return g, nil
}

// Interval returns the bucket width in seconds, or 0 for a value outside of
// the enumeration.
func (g Granularity) Interval() int64 {
	return granularityIntervals[g]
}
