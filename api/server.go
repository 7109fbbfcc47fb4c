package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/livepeer/sensor-data/sensors"
	"golang.org/x/sync/errgroup"
)

type ServerOptions struct {
	Host                string
	Port                uint
	ShutdownGracePeriod time.Duration
	APIHandlerOptions
}

func ListenAndServe(ctx context.Context, opts ServerOptions, aggregator Aggregator, catalog *sensors.Catalog) error {
	handler, err := NewHandler(opts.APIHandlerOptions, aggregator, catalog)
	if err != nil {
		return fmt.Errorf("error creating api handler: %w", err)
	}
	srv := &http.Server{
		Addr:    net.JoinHostPort(opts.Host, strconv.FormatUint(uint64(opts.Port), 10)),
		Handler: handler,
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		<-ctx.Done()
		glog.Infof("Shutting down api server. gracePeriod=%s", opts.ShutdownGracePeriod)
		shutCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			if closeErr := srv.Close(); closeErr != nil {
				err = fmt.Errorf("shutdownErr=%w closeErr=%q", err, closeErr)
			}
			return fmt.Errorf("api server shutdown error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		glog.Infof("Listening on addr=%s", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("api server listen and serve error: %w", err)
		}
		return nil
	})
	return eg.Wait()
}
