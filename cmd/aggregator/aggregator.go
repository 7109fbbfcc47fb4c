package aggregator

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/sensor-data/aggregation"
	"github.com/livepeer/sensor-data/api"
	"github.com/livepeer/sensor-data/readings"
	"github.com/livepeer/sensor-data/sensors"
	"github.com/peterbourgon/ff"
)

const (
	backendClickhouse = "clickhouse"
	backendBigQuery   = "bigquery"
	backendPrometheus = "prometheus"
)

// Build flags to be overwritten at build-time and passed to Run()
type BuildFlags struct {
	Version string
}

type cliFlags struct {
	readingsBackend string
	sensorCatalog   string
	timezone        string

	serverOpts     api.ServerOptions
	foldOpts       aggregation.FoldOptions
	clickhouseOpts readings.ClickhouseOptions
	bigqueryOpts   readings.BigQueryOptions
	promOpts       readings.PrometheusOptions
}

func parseFlags(args []string) (cliFlags, error) {
	cli := cliFlags{}
	fs := flag.NewFlagSet("aggregator", flag.ContinueOnError)

	fs.StringVar(&cli.readingsBackend, "readings-backend", backendClickhouse, "Store to fetch sensor readings from. One of clickhouse, bigquery or prometheus")
	fs.StringVar(&cli.sensorCatalog, "sensor-catalog", "", "Path to a JSON file with sensor types to add to or replace in the built-in catalog (optional)")

	// Server options
	fs.StringVar(&cli.serverOpts.Host, "host", "localhost", "Hostname to bind to")
	fs.UintVar(&cli.serverOpts.Port, "port", 8080, "Port to listen on")
	fs.DurationVar(&cli.serverOpts.ShutdownGracePeriod, "shutdown-grace-period", 15*time.Second, "Grace period to wait for server shutdown before using the force")
	// API Handler
	fs.StringVar(&cli.serverOpts.APIRoot, "api-root", "/data", "Root path where to bind the API to")
	fs.BoolVar(&cli.serverOpts.Prometheus, "prometheus", false, "Whether to enable Prometheus metrics registry and expose /metrics endpoint")
	fs.StringVar(&cli.serverOpts.AuthURL, "auth-url", "", "Endpoint for an auth server to call for both authentication and authorization of API calls")
	fs.DurationVar(&cli.serverOpts.CacheTTL, "cache-ttl", 5*time.Minute, "How long to cache aggregate and annotation responses. 0 disables the cache")
	fs.IntVar(&cli.serverOpts.CacheCapacity, "cache-capacity", 2000, "Maximum number of responses kept in the cache")
	fs.DurationVar(&cli.serverOpts.QueryTimeout, "query-timeout", 30*time.Second, "Timeout for a single aggregation request, including the readings query")

	// Aggregation options
	fs.StringVar(&cli.foldOpts.TimeFormat, "time-format", aggregation.DefaultTimeFormat, "Go time layout of the aggregated points timestamps")
	fs.StringVar(&cli.timezone, "timezone", "UTC", "IANA time zone the aggregated points timestamps are formatted in")
	fs.BoolVar(&cli.foldOpts.UnseededWeight, "unseeded-weight", false, "Start every bucket with a total weight of 0 instead of 1")
	fs.BoolVar(&cli.foldOpts.CarryBoundarySample, "carry-boundary-sample", false, "Fold the sample that closes a bucket into the next bucket instead of dropping it")

	// ClickHouse options
	fs.StringVar(&cli.clickhouseOpts.Addr, "clickhouse-addr", "localhost:9440", "Comma-separated list of ClickHouse addresses")
	fs.StringVar(&cli.clickhouseOpts.User, "clickhouse-user", "default", "ClickHouse user")
	fs.StringVar(&cli.clickhouseOpts.Password, "clickhouse-password", "", "ClickHouse password")
	fs.StringVar(&cli.clickhouseOpts.Database, "clickhouse-db", "sensors", "ClickHouse database")
	fs.StringVar(&cli.clickhouseOpts.Table, "clickhouse-readings-table", "sensor_readings", "ClickHouse table with the raw sensor readings")
	fs.BoolVar(&cli.clickhouseOpts.Insecure, "clickhouse-insecure-tls", false, "Skip TLS certificate verification of the ClickHouse server")

	// BigQuery options
	fs.StringVar(&cli.bigqueryOpts.BigQueryCredentialsJSON, "bigquery-credentials-json", "", "Google Cloud service account credentials JSON with access to BigQuery")
	fs.StringVar(&cli.bigqueryOpts.ReadingsTable, "bigquery-readings-table", "", "BigQuery table with the raw sensor readings")
	fs.Int64Var(&cli.bigqueryOpts.MaxBytesBilledPerBigQuery, "max-bytes-billed-per-big-query", 100*1024*1024, "Max bytes billed configuration to use for the queries to BigQuery")

	// Prometheus options
	fs.StringVar(&cli.promOpts.Config.Address, "prometheus-address", "", "Address of the Prometheus API")
	fs.StringVar(&cli.promOpts.QueryFormat, "prometheus-query-format", `avg(sensor_value{sensor_type="%s"})`, "PromQL query with 1 %s directive where the sensor type is replaced")
	fs.DurationVar(&cli.promOpts.Step, "prometheus-step", time.Minute, "Resolution of the Prometheus range queries")

	flag.Set("logtostderr", "true")
	glogVFlag := flag.Lookup("v")
	verbosity := fs.Int("v", 0, "Log verbosity {0-10}")

	fs.String("config", "", "config file (optional)")
	err := ff.Parse(fs, args,
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("LP"),
		ff.WithEnvVarIgnoreCommas(true),
	)
	if err != nil {
		return cli, err
	}
	flag.CommandLine.Parse(nil)
	if glogVFlag != nil {
		glogVFlag.Value.Set(strconv.Itoa(*verbosity))
	}

	loc, err := time.LoadLocation(cli.timezone)
	if err != nil {
		return cli, fmt.Errorf("invalid timezone %q: %w", cli.timezone, err)
	}
	cli.foldOpts.Location = loc

	return cli, nil
}

func newReadingsSource(cli cliFlags) (readings.Source, error) {
	switch cli.readingsBackend {
	case backendClickhouse:
		source, err := readings.NewClickhouseSource(cli.clickhouseOpts)
		if err != nil {
			return nil, err
		}
		return source, nil
	case backendBigQuery:
		if cli.bigqueryOpts.ReadingsTable == "" {
			return nil, errors.New("bigquery-readings-table is required for the bigquery backend")
		}
		source, err := readings.NewBigQuerySource(cli.bigqueryOpts)
		if err != nil {
			return nil, err
		}
		return source, nil
	case backendPrometheus:
		if cli.promOpts.Config.Address == "" {
			return nil, errors.New("prometheus-address is required for the prometheus backend")
		}
		source, err := readings.NewPrometheusSource(cli.promOpts)
		if err != nil {
			return nil, err
		}
		return source, nil
	default:
		return nil, fmt.Errorf("unknown readings backend %q", cli.readingsBackend)
	}
}

func loadCatalog(path string) (*sensors.Catalog, error) {
	if path == "" {
		return sensors.DefaultCatalog(), nil
	}
	return sensors.LoadCatalog(path)
}

func Run(build BuildFlags) {
	cli, err := parseFlags(os.Args[1:])
	if err != nil {
		glog.Fatalf("Error parsing flags. err=%q", err)
	}
	cli.serverOpts.APIHandlerOptions.ServerName = "sensor-aggregator/" + build.Version

	glog.Infof("Sensor data aggregator starting up... version=%q backend=%q", build.Version, cli.readingsBackend)
	ctx := contextUntilSignal(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	catalog, err := loadCatalog(cli.sensorCatalog)
	if err != nil {
		glog.Fatalf("Error loading sensor catalog. err=%q", err)
	}

	source, err := newReadingsSource(cli)
	if err != nil {
		glog.Fatalf("Error creating readings source. err=%q", err)
	}
	aggregator := aggregation.NewClient(aggregation.ClientOptions{Fold: cli.foldOpts}, source)

	glog.Info("Starting server...")
	err = api.ListenAndServe(ctx, cli.serverOpts, aggregator, catalog)
	if err != nil {
		glog.Fatalf("Error starting api server. err=%q", err)
	}
}

func contextUntilSignal(parent context.Context, sigs ...os.Signal) context.Context {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		defer cancel()
		waitSignal(sigs...)
	}()
	return ctx
}

func waitSignal(sigs ...os.Signal) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, sigs...)
	defer signal.Stop(sigc)

	signal := <-sigc
	switch signal {
	case syscall.SIGINT:
		glog.Infof("Got Ctrl-C, shutting down")
	case syscall.SIGTERM:
		glog.Infof("Got SIGTERM, shutting down")
	default:
		glog.Infof("Got signal %d, shutting down", signal)
	}
}
