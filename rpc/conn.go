package rpc

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.chrisrx.dev/x/run"
)

const (
	handshakeTimeout = 10 * time.Second
	dialTimeout      = 5 * time.Second
	writeTimeout     = 10 * time.Second
	pingInterval     = 30 * time.Second
)

// Conn is a Transport over a WebSocket connection.
type Conn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

var _ Transport = (*Conn)(nil)

// NewConn dials addr. tlsConfig is used for wss:// addresses and may be nil.
func NewConn(ctx context.Context, addr string, tlsConfig *tls.Config) (*Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	if strings.HasPrefix(addr, "wss://") {
		dialer.TLSClientConfig = tlsConfig
	}
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	ws, resp, err := dialer.DialContext(ctx, addr, nil)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	defer resp.Body.Close()
	return &Conn{ws: ws}, nil
}

func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnClosed
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal closure and closes the socket. Serve then reports the
// connection as closed.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	m := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, m, time.Now().Add(time.Second))
	return c.ws.Close()
}

// Serve reads frames until the connection ends, delivering them and the
// connection lifecycle to l. It blocks, so it is usually run in its own
// goroutine.
func (c *Conn) Serve(ctx context.Context, l Listener) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.Opened()

	go run.Every(ctx, func() error {
		return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
	}, pingInterval)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			c.finish(l, err)
			return
		}
		l.Frame(data)
	}
}

func (c *Conn) finish(l Listener, err error) {
	c.mu.Lock()
	closedLocally := c.closed
	c.closed = true
	c.mu.Unlock()
	defer c.ws.Close()

	var ce *websocket.CloseError
	switch {
	case closedLocally:
		l.Closed(nil)
	case errors.As(err, &ce) && (ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway):
		l.Closed(ce)
	default:
		l.Errored(&TransportError{Op: "read", Err: err})
		l.Closed(err)
	}
}
