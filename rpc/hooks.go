package rpc

import (
	"errors"
	"fmt"
	"log/slog"
)

// Hooks observe the connection lifecycle and every inbound frame. Nil fields
// are ignored.
type Hooks struct {
	OnOpen  func()
	OnClose func(reason error)

	// OnFrame sees every inbound frame before it is routed.
	OnFrame      func(data []byte)
	OnMalformed  func(data []byte, err error)
	OnUnroutable func(key Key, data []byte)
}

type ErrorPolicy int

const (
	// FailFast records the error, closes the transport and ends the client.
	FailFast ErrorPolicy = iota
	// HandleErrors passes the error to the handler set with WithErrorHandler.
	HandleErrors
)

func (c *Client) Opened() {
	c.openOnce.Do(func() {
		c.logger.Debug("connection opened")
		if c.hooks.OnOpen != nil {
			c.hooks.OnOpen()
		}
	})
}

// Closed tears the client down. Requests still waiting for a response
// receive ErrClosed and subscriptions are dropped.
func (c *Client) Closed(reason error) {
	c.closeOnce.Do(func() {
		c.logger.Info("connection closed", slog.Any("reason", reason))
		if c.hooks.OnClose != nil {
			c.hooks.OnClose(reason)
		}
		err := ErrClosed
		if reason != nil {
			err = fmt.Errorf("%w: %w", ErrClosed, reason)
		}
		for _, e := range c.table.drain() {
			if e.onResult != nil && !e.delivered.Load() {
				e.onResult(err, nil)
			}
		}
		close(c.done)
	})
}

func (c *Client) Errored(err error) {
	var terr *TransportError
	if !errors.As(err, &terr) {
		err = &TransportError{Op: "read", Err: err}
	}
	if c.policy == HandleErrors {
		c.onError(err)
		return
	}
	c.logger.Error("transport error", slog.Any("error", err))
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	if cerr := c.transport.Close(); cerr != nil {
		c.logger.Debug("cannot close transport", slog.Any("error", cerr))
	}
}
