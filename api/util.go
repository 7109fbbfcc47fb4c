package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/livepeer/sensor-data/aggregation"
)

func parseInputTimestamp(str string) (*time.Time, error) {
	if str == "" {
		return nil, nil
	}
	t, rfcErr := time.Parse(time.RFC3339Nano, str)
	if rfcErr == nil {
		return &t, nil
	}

	ts, unixErr := strconv.ParseInt(str, 10, 64)
	if unixErr != nil {
		return nil, fmt.Errorf("bad time %q. must be in RFC3339 or Unix Timestamp (millisecond) formats. rfcErr: %s; unixErr: %s", str, rfcErr, unixErr)
	}
	t = time.UnixMilli(ts).UTC()
	return &t, nil
}

func parseInputGranularity(str string) (aggregation.Granularity, error) {
	if str == "" {
		return aggregation.Hour, nil
	}
	return aggregation.ParseGranularity(str)
}

func parseInputBool(name, str string) (bool, error) {
	if str == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("bad %s %q: must be a boolean", name, str)
	}
	return b, nil
}

func nonNilErrs(errs ...error) []error {
	var nonNil []error
	for _, err := range errs {
		if err != nil {
			nonNil = append(nonNil, err)
		}
	}
	return nonNil
}
