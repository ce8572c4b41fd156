package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// SubscribeAddress asks the server to push updates for address. Once the
// acknowledgement arrives it is passed to onAck and onUpdate, if not nil,
// becomes the handler for the address, replacing any previous one. Updates
// that arrive before the acknowledgement are dropped.
func (c *Client) SubscribeAddress(address string, onAck Handler, onUpdate UpdateHandler) (*Call, error) {
	return c.subscribe(SubscribeAddressCommand, address, onAck, onUpdate)
}

// RenewAddress is SubscribeAddress with the renew command. A nil onUpdate
// keeps the handler already registered for address.
func (c *Client) RenewAddress(address string, onAck Handler, onUpdate UpdateHandler) (*Call, error) {
	return c.subscribe(RenewAddressCommand, address, onAck, onUpdate)
}

func (c *Client) subscribe(command Command, address string, onAck Handler, onUpdate UpdateHandler) (*Call, error) {
	if onAck == nil {
		return nil, ErrInvalidHandler
	}
	return c.Dispatch(command, []any{address}, func(err error, result json.RawMessage) {
		onAck(err, result)
		if onUpdate == nil || errors.Is(err, ErrClosed) {
			return
		}
		c.table.register(&entry{key: TopicKey(address), onUpdate: onUpdate})
	})
}

// Subscribe is SubscribeAddress waiting for the acknowledgement.
func (c *Client) Subscribe(ctx context.Context, address string, onUpdate UpdateHandler) (json.RawMessage, error) {
	return c.Await(ctx, func(h Handler) (*Call, error) {
		return c.SubscribeAddress(address, h, onUpdate)
	})
}

// Renew is RenewAddress waiting for the acknowledgement.
func (c *Client) Renew(ctx context.Context, address string, onUpdate UpdateHandler) (json.RawMessage, error) {
	return c.Await(ctx, func(h Handler) (*Call, error) {
		return c.RenewAddress(address, h, onUpdate)
	})
}

// Subscriptions returns the addresses that currently have an update handler.
func (c *Client) Subscriptions() []string {
	topics := c.table.topics()
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		out = append(out, strings.TrimPrefix(t, TopicName("")))
	}
	sort.Strings(out)
	return out
}
