package rpc

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHandler  = errors.New("handler must not be nil")
	ErrMalformedFrame  = errors.New("malformed frame")
	ErrUnroutableFrame = errors.New("unroutable frame")
	ErrClosed          = errors.New("client closed")
	ErrConnClosed      = errors.New("connection is closed")
)

// TransportError is a failure reported by the underlying connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
