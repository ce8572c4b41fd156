package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Frame routes one inbound frame to the handler registered for it. Bad or
// unroutable frames are logged and dropped.
func (c *Client) Frame(data []byte) {
	if c.hooks.OnFrame != nil {
		c.hooks.OnFrame(data)
	}

	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.malformed(data, err)
		return
	}

	var key Key
	switch {
	case f.isUpdate():
		key = TopicKey(f.Address)
	case f.ID != nil:
		key = RequestKey(*f.ID)
	default:
		c.malformed(data, errors.New("frame has no id"))
		return
	}

	e, ok := c.table.lookup(key)
	if !ok {
		c.logger.Debug(ErrUnroutableFrame.Error(), slog.String("key", key.String()))
		if c.hooks.OnUnroutable != nil {
			c.hooks.OnUnroutable(key, data)
		}
		return
	}

	if key.Kind == TopicKind {
		var u Update
		if err := json.Unmarshal(data, &u); err != nil {
			c.malformed(data, err)
			return
		}
		e.onUpdate(u)
		return
	}

	e.delivered.Store(true)
	e.onResult(f.remoteError(), f.first())
	if c.reclaim {
		c.table.remove(e)
	}
}

func (c *Client) malformed(data []byte, cause error) {
	err := fmt.Errorf("%w: %w", ErrMalformedFrame, cause)
	c.logger.Warn("dropping frame", slog.Any("error", err), slog.Int("size", len(data)))
	if c.hooks.OnMalformed != nil {
		c.hooks.OnMalformed(data, err)
	}
}
