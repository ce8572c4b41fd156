package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"go.chrisrx.dev/chainws/rpc"
)

// maxUpdates is the number of updates kept per address.
const maxUpdates = 100

type gateway struct {
	client  *rpc.Client
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	updates map[string][]rpc.Update
}

func newGateway(client *rpc.Client, timeout time.Duration, logger *slog.Logger) *gateway {
	return &gateway{
		client:  client,
		timeout: timeout,
		logger:  logger,
		updates: make(map[string][]rpc.Update),
	}
}

func (g *gateway) register(e *echo.Echo) {
	e.GET("/height", func(c echo.Context) error {
		return g.call(c, g.client.FetchLastHeight)
	})
	e.GET("/tx/:hash", func(c echo.Context) error {
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.FetchTransaction(c.Param("hash"), h)
		})
	})
	e.GET("/history/:address", func(c echo.Context) error {
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.FetchHistory(c.Param("address"), h)
		})
	})
	e.GET("/header/:index", func(c echo.Context) error {
		index, err := strconv.ParseUint(c.Param("index"), 10, 64)
		if err != nil {
			return badRequest(c, err)
		}
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.FetchBlockHeader(index, h)
		})
	})
	e.GET("/block/:index/txs", func(c echo.Context) error {
		index, err := strconv.ParseUint(c.Param("index"), 10, 64)
		if err != nil {
			return badRequest(c, err)
		}
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.FetchBlockTransactionHashes(index, h)
		})
	})
	e.GET("/spend/:hash/:index", func(c echo.Context) error {
		index, err := strconv.ParseUint(c.Param("index"), 10, 32)
		if err != nil {
			return badRequest(c, err)
		}
		outpoint := rpc.Outpoint{Hash: c.Param("hash"), Index: uint32(index)}
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.FetchSpend(outpoint, h)
		})
	})

	e.POST("/subscribe/:address", func(c echo.Context) error {
		address := c.Param("address")
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.SubscribeAddress(address, h, g.record(address))
		})
	})
	e.POST("/renew/:address", func(c echo.Context) error {
		address := c.Param("address")
		return g.call(c, func(h rpc.Handler) (*rpc.Call, error) {
			return g.client.RenewAddress(address, h, nil)
		})
	})
	e.GET("/updates/:address", func(c echo.Context) error {
		g.mu.Lock()
		updates, ok := g.updates[c.Param("address")]
		updates = append([]rpc.Update(nil), updates...)
		g.mu.Unlock()
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]any{
				"status": http.StatusNotFound,
				"error":  "not subscribed",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":  http.StatusOK,
			"updates": updates,
		})
	})

	e.GET("/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":        http.StatusOK,
			"pending":       g.client.Pending(),
			"subscriptions": g.client.Subscriptions(),
		})
	})
}

// record returns the update handler for address. Updates are only kept for
// addresses subscribed through the gateway.
func (g *gateway) record(address string) rpc.UpdateHandler {
	g.mu.Lock()
	if _, ok := g.updates[address]; !ok {
		g.updates[address] = []rpc.Update{}
	}
	g.mu.Unlock()

	return func(u rpc.Update) {
		g.mu.Lock()
		defer g.mu.Unlock()
		updates := append(g.updates[address], u)
		if len(updates) > maxUpdates {
			updates = updates[len(updates)-maxUpdates:]
		}
		g.updates[address] = updates
	}
}

func (g *gateway) call(c echo.Context, dispatch func(rpc.Handler) (*rpc.Call, error)) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), g.timeout)
	defer cancel()

	result, err := g.client.Await(ctx, dispatch)
	if err != nil {
		return g.fail(c, err)
	}
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": http.StatusOK,
		"result": result,
	})
}

func (g *gateway) fail(c echo.Context, err error) error {
	var rerr *rpc.RemoteError
	switch {
	case errors.As(err, &rerr):
		return c.JSON(http.StatusBadGateway, map[string]any{
			"status": http.StatusBadGateway,
			"error":  rerr.Raw,
		})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, map[string]any{
			"status": http.StatusGatewayTimeout,
			"error":  err.Error(),
		})
	default:
		g.logger.Error("request failed", slog.String("path", c.Path()), slog.Any("error", err))
		return c.JSON(http.StatusServiceUnavailable, map[string]any{
			"status": http.StatusServiceUnavailable,
			"error":  err.Error(),
		})
	}
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, map[string]any{
		"status": http.StatusBadRequest,
		"error":  err.Error(),
	})
}
