package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/livepeer/sensor-data/aggregation"
	"github.com/livepeer/sensor-data/metrics"
	"github.com/livepeer/sensor-data/sensors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cache "github.com/victorspringer/http-cache"
	"github.com/victorspringer/http-cache/adapter/memory"
)

const sensorTypeParam = "sensorType"

type APIHandlerOptions struct {
	ServerName, APIRoot, AuthURL string
	Prometheus                   bool

	// CacheTTL of the aggregate and annotation responses. Caching is disabled
	// when zero.
	CacheTTL      time.Duration
	CacheCapacity int
	QueryTimeout  time.Duration
}

// Aggregator is the aggregation.Client interface used by the API
type Aggregator interface {
	Aggregate(ctx context.Context, sensorType string, granularity aggregation.Granularity, from, to time.Time) ([]aggregation.Point, error)
}

type apiHandler struct {
	opts       APIHandlerOptions
	aggregator Aggregator
	catalog    *sensors.Catalog
	httpCache  *cache.Client
}

func NewHandler(opts APIHandlerOptions, aggregator Aggregator, catalog *sensors.Catalog) (http.Handler, error) {
	handler := &apiHandler{opts: opts, aggregator: aggregator, catalog: catalog}
	if opts.CacheTTL > 0 {
		httpCache, err := newHttpCache(opts.CacheTTL, opts.CacheCapacity)
		if err != nil {
			return nil, fmt.Errorf("error creating http cache: %w", err)
		}
		handler.httpCache = httpCache
	}

	router := chi.NewRouter()

	// don't use middlewares for the system routes
	router.Get("/_healthz", handler.healthcheck)
	if opts.Prometheus {
		router.Method("GET", "/metrics", promhttp.Handler())
	}

	router.Route(opts.APIRoot, func(router chi.Router) {
		router.Use(chimiddleware.Logger)
		router.Use(chimiddleware.NewCompressor(5, "application/json").Handler)
		router.Use(handler.cors())

		router.Mount("/sensors", handler.sensorsHandler())
	})

	return router, nil
}

func newHttpCache(ttl time.Duration, capacity int) (*cache.Client, error) {
	if capacity <= 0 {
		capacity = 2000
	}
	memcached, err := memory.NewAdapter(
		memory.AdapterWithAlgorithm(memory.LRU),
		memory.AdapterWithCapacity(capacity),
	)
	if err != nil {
		return nil, err
	}

	return cache.NewClient(
		cache.ClientWithAdapter(memcached),
		cache.ClientWithTTL(ttl),
	)
}

func (h *apiHandler) sensorsHandler() chi.Router {
	router := chi.NewRouter()

	h.withMetrics(h.withAuth(router), "list_sensor_types").
		MethodFunc("GET", "/", h.listSensorTypes)

	router.Route(fmt.Sprintf("/{%s}", sensorTypeParam), func(router chi.Router) {
		router = h.withAuth(router)
		h.withMetrics(router, "query_aggregate").
			With(h.cache()).
			MethodFunc("GET", "/aggregate", h.queryAggregate)
		h.withMetrics(router, "get_axis_annotations").
			With(h.cache()).
			MethodFunc("GET", "/annotations", h.getAxisAnnotations)
	})

	return router
}

func (h *apiHandler) withAuth(router chi.Router) chi.Router {
	if h.opts.AuthURL == "" {
		return router
	}
	return router.With(authorization(h.opts.AuthURL))
}

func (h *apiHandler) withMetrics(router chi.Router, name string) chi.Router {
	if !h.opts.Prometheus {
		return router
	}
	return router.With(func(handler http.Handler) http.Handler {
		return metrics.ObservedHandler(name, handler)
	})
}

func (h *apiHandler) cache() middleware {
	return func(next http.Handler) http.Handler {
		if h.httpCache == nil {
			return next
		}
		next = h.httpCache.Middleware(next)

		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			maxAge := int(h.opts.CacheTTL.Seconds())
			rw.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-if-error=86400", maxAge))
			rw.Header().Add("Vary", "Authorization")

			// cache lib uses only URL as key so add auth header to the query-string
			query := r.URL.Query()
			query.Add("auth-header", r.Header.Get("Authorization"))
			r.URL.RawQuery = query.Encode()

			next.ServeHTTP(rw, r)
		})
	}
}

func (h *apiHandler) cors() middleware {
	return inlineMiddleware(func(rw http.ResponseWriter, r *http.Request, next http.Handler) {
		if h.opts.ServerName != "" {
			rw.Header().Set("Server", h.opts.ServerName)
		}
		rw.Header().Set("Access-Control-Allow-Origin", "*")
		rw.Header().Set("Access-Control-Allow-Headers", "*")
		if origin := r.Header.Get("Origin"); origin != "" {
			rw.Header().Set("Access-Control-Allow-Origin", origin)
			rw.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		next.ServeHTTP(rw, r)
	})
}

func (h *apiHandler) healthcheck(rw http.ResponseWriter, r *http.Request) {
	rw.WriteHeader(http.StatusOK)
}

func (h *apiHandler) listSensorTypes(rw http.ResponseWriter, r *http.Request) {
	respondJson(rw, http.StatusOK, h.catalog.List())
}

func (h *apiHandler) queryAggregate(rw http.ResponseWriter, r *http.Request) {
	sensorType, err := h.catalog.Get(apiParam(r, sensorTypeParam))
	if err != nil {
		respondError(rw, http.StatusInternalServerError, err)
		return
	}

	qs := r.URL.Query()
	var (
		from, err1        = parseInputTimestamp(qs.Get("from"))
		to, err2          = parseInputTimestamp(qs.Get("to"))
		granularity, err3 = parseInputGranularity(qs.Get("granularity"))
	)
	if errs := nonNilErrs(err1, err2, err3); len(errs) > 0 {
		respondError(rw, http.StatusBadRequest, errs...)
		return
	}
	if from == nil || to == nil {
		respondError(rw, http.StatusBadRequest, errors.New("query 'from' and 'to' are required"))
		return
	}

	ctx := r.Context()
	if h.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.QueryTimeout)
		defer cancel()
	}

	points, err := h.aggregator.Aggregate(ctx, sensorType.Name, granularity, *from, *to)
	if err != nil {
		respondError(rw, http.StatusInternalServerError, err)
		return
	}
	respondJson(rw, http.StatusOK, points)
}

func (h *apiHandler) getAxisAnnotations(rw http.ResponseWriter, r *http.Request) {
	sensorType, err := h.catalog.Get(apiParam(r, sensorTypeParam))
	if err != nil {
		respondError(rw, http.StatusInternalServerError, err)
		return
	}

	compact, err := parseInputBool("compact", r.URL.Query().Get("compact"))
	if err != nil {
		respondError(rw, http.StatusBadRequest, err)
		return
	}

	respondJson(rw, http.StatusOK, sensors.AxisAnnotations(sensorType, compact))
}
