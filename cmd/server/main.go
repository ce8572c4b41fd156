package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.chrisrx.dev/x/log"
	"go.chrisrx.dev/x/run"
	"golang.org/x/time/rate"

	"go.chrisrx.dev/chainws/rpc"
)

type config struct {
	Addr    string        `env:"CHAINWS_ADDR"`
	Listen  string        `env:"CHAINWS_LISTEN" envDefault:":8080"`
	Rate    float64       `env:"CHAINWS_RATE" envDefault:"20"`
	Timeout time.Duration `env:"CHAINWS_TIMEOUT" envDefault:"10s"`
}

func main() {
	var opts config
	if err := env.Parse(&opts); err != nil {
		log.Fatal(err)
	}

	cmd := &cobra.Command{
		Use: "server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Addr == "" {
				return fmt.Errorf("must provide addr")
			}

			ctx := cmd.Context()
			logger := log.New(log.WithFormat(log.JSONFormat))

			client, err := connect(ctx, opts.Addr, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			e := echo.New()
			e.HideBanner = true
			e.HidePort = true
			e.Use(middleware.Logger())
			e.Use(middleware.Recover())
			e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.Rate))))

			newGateway(client, opts.Timeout, logger).register(e)

			go func() {
				select {
				case <-client.Done():
					if err := client.Err(); err != nil {
						log.Fatal(err)
					}
				case <-ctx.Done():
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = e.Shutdown(shutdownCtx)
			}()

			if err := e.Start(opts.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", opts.Addr, "websocket address of the query service")
	cmd.Flags().StringVar(&opts.Listen, "listen", opts.Listen, "http listen address")
	cmd.Flags().Float64Var(&opts.Rate, "rate", opts.Rate, "requests per second allowed per client ip")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "time to wait for a response")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

// connect retries the initial dial until it succeeds. Once connected, a lost
// connection ends the process instead.
func connect(ctx context.Context, addr string, logger *slog.Logger) (*rpc.Client, error) {
	var client *rpc.Client
	err := run.Until(ctx, func() error {
		logger.Info("attempting connection...", slog.String("addr", addr))
		c, err := rpc.Dial(ctx, addr, rpc.WithLogger(logger))
		if err != nil {
			logger.Error("cannot connect", slog.Any("error", err))
			return err
		}
		client = c
		return nil
	}, 1*time.Second)
	if client == nil {
		if err == nil {
			err = ctx.Err()
		}
		return nil, err
	}
	return client, nil
}
