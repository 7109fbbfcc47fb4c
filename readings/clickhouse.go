package readings

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type ClickhouseOptions struct {
	Addr     string
	User     string
	Password string
	Database string
	Table    string
	Insecure bool
}

// interface from driver.Conn to allow mocking
type clickhouseConn interface {
	Select(ctx context.Context, dest any, query string, args ...any) error
}

type readingRow struct {
	Timestamp time.Time `ch:"timestamp" bigquery:"timestamp"`
	Value     float64   `ch:"value" bigquery:"value"`
}

type ClickhouseSource struct {
	opts ClickhouseOptions
	conn clickhouseConn
}

func NewClickhouseSource(opts ClickhouseOptions) (*ClickhouseSource, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: strings.Split(opts.Addr, ","),
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.User,
			Password: opts.Password,
		},
		TLS: &tls.Config{
			InsecureSkipVerify: opts.Insecure,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error opening clickhouse connection: %w", err)
	}
	return &ClickhouseSource{opts, conn}, nil
}

func (c *ClickhouseSource) FetchReadings(ctx context.Context, sensorType string, from, to time.Time) ([]Reading, error) {
	sql, args, err := buildReadingsQuery(c.opts.Table, sensorType, from, to)
	if err != nil {
		return nil, fmt.Errorf("error building readings query: %w", err)
	}

	var rows []readingRow
	if err := c.conn.Select(ctx, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("clickhouse error: %w", err)
	} else if len(rows) > maxResultRows {
		return nil, errTooManyReadings()
	}

	return toReadings(rows), nil
}

func toReadings(rows []readingRow) []Reading {
	readings := make([]Reading, len(rows))
	for i, row := range rows {
		readings[i] = Reading{Timestamp: row.Timestamp, Value: row.Value}
	}
	return readings
}
