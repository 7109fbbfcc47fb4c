package readings

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
)

const maxResultRows = 50000

// Reading is a single raw sensor sample as kept by the store.
type Reading struct {
	Timestamp time.Time
	Value     float64
}

// Source fetches the readings of a single sensor type with a timestamp in the
// closed range [from, to], sorted ascending by timestamp.
type Source interface {
	FetchReadings(ctx context.Context, sensorType string, from, to time.Time) ([]Reading, error)
}

func buildReadingsQuery(table, sensorType string, from, to time.Time) (string, []interface{}, error) {
	if table == "" {
		return "", nil, fmt.Errorf("readings table cannot be empty")
	}
	if sensorType == "" {
		return "", nil, fmt.Errorf("sensor type cannot be empty")
	}

	query := squirrel.Select("timestamp", "value").
		From(table).
		Where("sensor_type = ?", sensorType).
		Where("timestamp >= ?", from).
		Where("timestamp <= ?", to).
		OrderBy("timestamp ASC").
		Limit(maxResultRows + 1)

	sql, args, err := query.ToSql()
	if err != nil {
		return "", nil, err
	}

	return sql, args, nil
}

func errTooManyReadings() error {
	return fmt.Errorf("query must return less than %d readings. consider decreasing your timeframe", maxResultRows)
}
