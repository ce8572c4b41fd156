package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    []string
	err     error
	closed  bool
	respond func(req Request) string

	listener Listener
}

func (f *fakeTransport) Send(data []byte) error {
	f.mu.Lock()
	if f.err != nil {
		f.mu.Unlock()
		return f.err
	}
	f.sent = append(f.sent, string(data))
	respond, l := f.respond, f.listener
	f.mu.Unlock()

	if respond != nil && l != nil {
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return err
		}
		if reply := respond(req); reply != "" {
			l.Frame([]byte(reply))
		}
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("already closed")
	}
	f.closed = true
	return nil
}

func (f *fakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sequentialIDs hands out 1, 2, 3, ...
func sequentialIDs() IDAllocator {
	var mu sync.Mutex
	var n uint32
	return func() uint32 {
		mu.Lock()
		defer mu.Unlock()
		n++
		return n
	}
}

func newTestClient(opts ...Option) (*Client, *fakeTransport) {
	t := &fakeTransport{}
	opts = append([]Option{WithLogger(discardLogger()), WithIDAllocator(sequentialIDs())}, opts...)
	c := New(t, opts...)
	t.listener = c
	return c, t
}

// recorder collects router events reported through Hooks.
type recorder struct {
	mu         sync.Mutex
	frames     int
	malformed  []error
	unroutable []Key
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnFrame: func([]byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.frames++
		},
		OnMalformed: func(_ []byte, err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.malformed = append(r.malformed, err)
		},
		OnUnroutable: func(key Key, _ []byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.unroutable = append(r.unroutable, key)
		},
	}
}
