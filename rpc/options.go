package rpc

import (
	"crypto/tls"
	"log/slog"
)

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithIDAllocator(fn IDAllocator) Option {
	return func(c *Client) {
		c.nextID = fn
	}
}

// WithReclaim removes a request's registration once its handler has returned.
// By default registrations stay in place after delivery.
func WithReclaim(enabled bool) Option {
	return func(c *Client) {
		c.reclaim = enabled
	}
}

func WithHooks(h Hooks) Option {
	return func(c *Client) {
		c.hooks = h
	}
}

// WithErrorHandler replaces the fail-fast reaction to transport errors.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) {
		if fn == nil {
			c.policy = FailFast
			c.onError = nil
			return
		}
		c.policy = HandleErrors
		c.onError = fn
	}
}

// WithTLSConfig is used by Dial for wss:// addresses.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}
