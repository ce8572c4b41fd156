package rpc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives the outcome of a one-shot request: the remote error (as
// *RemoteError) or a local failure, and the first element of the result.
type Handler func(err error, result json.RawMessage)

// UpdateHandler receives every update pushed for a subscribed address.
type UpdateHandler func(update Update)

// Transport is the connection the client writes requests to. Inbound frames
// and lifecycle signals come back through the client's Listener methods.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Listener receives the signals of a Transport.
type Listener interface {
	Opened()
	Closed(reason error)
	Errored(err error)
	Frame(data []byte)
}

var _ Listener = (*Client)(nil)

type Client struct {
	transport Transport
	table     *table
	nextID    IDAllocator
	reclaim   bool
	hooks     Hooks
	policy    ErrorPolicy
	onError   func(error)
	tlsConfig *tls.Config
	logger    *slog.Logger

	openOnce  sync.Once
	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// New returns a client writing to t. The caller is responsible for delivering
// t's signals to the returned client.
func New(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		table:     newTable(),
		nextID:    RandomID,
		logger:    slog.Default(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and starts delivering frames to the returned client.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := New(nil, opts...)
	conn, err := NewConn(ctx, addr, c.tlsConfig)
	if err != nil {
		return nil, err
	}
	c.transport = conn
	c.logger = c.logger.With(slog.String("addr", addr))
	go conn.Serve(context.WithoutCancel(ctx), c)
	return c, nil
}

// Close closes the transport. Pending requests are failed once the transport
// reports the closure.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Done is closed once the connection has closed and the client was torn down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns the transport error that ended the client under the fail-fast
// policy, or nil.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Pending reports the number of live registrations.
func (c *Client) Pending() int {
	return c.table.len()
}

// Call is a dispatched request whose response may still arrive.
type Call struct {
	id uint32
	c  *Client
	e  *entry
}

func (call *Call) ID() uint32 {
	return call.id
}

// Cancel removes the registration. The handler will not be invoked afterwards
// unless it is already running. Cancel reports whether a registration was
// removed.
func (call *Call) Cancel() bool {
	return call.c.table.remove(call.e)
}

// Dispatch sends command with params and registers h to receive the response.
// The registration is in place before the request is written.
func (c *Client) Dispatch(command Command, params []any, h Handler) (*Call, error) {
	if h == nil {
		return nil, ErrInvalidHandler
	}
	if params == nil {
		params = []any{}
	}
	req := Request{
		ID:      c.nextID(),
		Command: command,
		Params:  params,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %s request: %w", command, err)
	}
	e := &entry{key: RequestKey(req.ID), onResult: h}
	if prev := c.table.register(e); prev != nil {
		c.logger.Warn("request id already registered, replacing handler",
			slog.Uint64("id", uint64(req.ID)),
			slog.String("command", string(command)),
		)
	}
	if err := c.transport.Send(data); err != nil {
		c.table.remove(e)
		return nil, &TransportError{Op: "send", Err: err}
	}
	c.logger.Debug("request sent",
		slog.Uint64("id", uint64(req.ID)),
		slog.String("command", string(command)),
	)
	return &Call{id: req.ID, c: c, e: e}, nil
}

// Request dispatches command and waits for its response. The registration is
// removed when Request returns.
func (c *Client) Request(ctx context.Context, command Command, params ...any) (json.RawMessage, error) {
	return c.Await(ctx, func(h Handler) (*Call, error) {
		return c.Dispatch(command, params, h)
	})
}

type outcome struct {
	result json.RawMessage
	err    error
}

// Await runs dispatch with a handler that captures the outcome and waits for
// it. The call is cancelled when Await returns.
func (c *Client) Await(ctx context.Context, dispatch func(Handler) (*Call, error)) (json.RawMessage, error) {
	ch := make(chan outcome, 1)
	call, err := dispatch(func(err error, result json.RawMessage) {
		select {
		case ch <- outcome{result: result, err: err}:
		default:
		}
	})
	if err != nil {
		return nil, err
	}
	defer call.Cancel()

	select {
	case o := <-ch:
		return o.result, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do is Request with the result decoded into T.
func Do[T any](ctx context.Context, c *Client, command Command, params ...any) (T, error) {
	var v T
	data, err := c.Request(ctx, command, params...)
	if err != nil {
		return v, err
	}
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("cannot decode %s result: %w", command, err)
	}
	return v, nil
}

// Typed adapts fn to a Handler that decodes the result into T. A nil fn
// yields a nil Handler.
func Typed[T any](fn func(err error, v T)) Handler {
	if fn == nil {
		return nil
	}
	return func(err error, result json.RawMessage) {
		var v T
		if err == nil && len(result) > 0 {
			if derr := json.Unmarshal(result, &v); derr != nil {
				err = fmt.Errorf("cannot decode result: %w", derr)
			}
		}
		fn(err, v)
	}
}
