package readings

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type BigQueryOptions struct {
	BigQueryCredentialsJSON   string
	ReadingsTable             string
	MaxBytesBilledPerBigQuery int64
}

// interface from *bigquery.Client to allow mocking
type bigqueryClient interface {
	Query(q string) *bigquery.Query
}

type BigQuerySource struct {
	opts   BigQueryOptions
	client bigqueryClient
}

func NewBigQuerySource(opts BigQueryOptions) (*BigQuerySource, error) {
	bigquery, err := bigquery.NewClient(context.Background(),
		bigquery.DetectProjectID,
		option.WithCredentialsJSON([]byte(opts.BigQueryCredentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("error creating bigquery client: %w", err)
	}

	return &BigQuerySource{opts, bigquery}, nil
}

func (bq *BigQuerySource) FetchReadings(ctx context.Context, sensorType string, from, to time.Time) ([]Reading, error) {
	sql, args, err := buildReadingsQuery(bq.opts.ReadingsTable, sensorType, from, to)
	if err != nil {
		return nil, fmt.Errorf("error building readings query: %w", err)
	}

	rows, err := doBigQuery[readingRow](bq, ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("bigquery error: %w", err)
	} else if len(rows) > maxResultRows {
		return nil, errTooManyReadings()
	}

	return toReadings(rows), nil
}

func doBigQuery[RowT any](bq *BigQuerySource, ctx context.Context, sql string, args []interface{}) ([]RowT, error) {
	query := bq.client.Query(sql)
	query.Parameters = toBigQueryParameters(args)
	query.MaxBytesBilled = bq.opts.MaxBytesBilledPerBigQuery

	it, err := query.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("error running query: %w", err)
	}

	return toTypedValues[RowT](it)
}

func toBigQueryParameters(args []interface{}) []bigquery.QueryParameter {
	params := make([]bigquery.QueryParameter, len(args))
	for i, arg := range args {
		params[i] = bigquery.QueryParameter{Value: arg}
	}
	return params
}

func toTypedValues[RowT any](it *bigquery.RowIterator) ([]RowT, error) {
	var values []RowT
	for {
		var row RowT
		err := it.Next(&row)
		if err == iterator.Done {
			break
		} else if err != nil {
			return nil, fmt.Errorf("error reading query result: %w", err)
		}

		values = append(values, row)
	}
	return values, nil
}
