package rpc

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestOpenedFiresOnce(t *testing.T) {
	t.Parallel()

	opened := 0
	c, _ := newTestClient(WithHooks(Hooks{OnOpen: func() { opened++ }}))
	c.Opened()
	c.Opened()
	if opened != 1 {
		t.Errorf("OnOpen fired %d times, want 1", opened)
	}
}

func TestClosedFailsPendingRequests(t *testing.T) {
	t.Parallel()

	var reasons []error
	c, _ := newTestClient(WithHooks(Hooks{OnClose: func(reason error) { reasons = append(reasons, reason) }}))

	var gotErr error
	if _, err := c.FetchLastHeight(func(err error, _ json.RawMessage) { gotErr = err }); err != nil {
		t.Fatal(err)
	}
	var ackErr error
	if _, err := c.SubscribeAddress("abc", func(err error, _ json.RawMessage) { ackErr = err }, func(Update) {
		t.Error("update handler must not be called")
	}); err != nil {
		t.Fatal(err)
	}

	reason := errors.New("going away")
	c.Closed(reason)
	c.Closed(nil)

	if len(reasons) != 1 || reasons[0] != reason {
		t.Errorf("OnClose reasons = %v, want [%v]", reasons, reason)
	}
	if !errors.Is(gotErr, ErrClosed) || !errors.Is(gotErr, reason) {
		t.Errorf("request err = %v, want ErrClosed wrapping the reason", gotErr)
	}
	if !errors.Is(ackErr, ErrClosed) {
		t.Errorf("ack err = %v, want ErrClosed", ackErr)
	}
	if n := c.Pending(); n != 0 {
		t.Errorf("Pending() = %d, want 0", n)
	}
	select {
	case <-c.Done():
	default:
		t.Error("Done() not closed")
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestErroredFailFast(t *testing.T) {
	t.Parallel()

	c, tr := newTestClient()
	boom := errors.New("boom")
	c.Errored(boom)

	var terr *TransportError
	if err := c.Err(); !errors.As(err, &terr) || !errors.Is(err, boom) {
		t.Errorf("Err() = %v, want TransportError wrapping boom", err)
	}
	if !tr.Closed() {
		t.Error("transport not closed")
	}

	// The first error is kept.
	c.Errored(errors.New("later"))
	if err := c.Err(); !errors.Is(err, boom) {
		t.Errorf("Err() = %v, want boom", err)
	}
}

func TestErroredWithHandler(t *testing.T) {
	t.Parallel()

	var got []error
	c, tr := newTestClient(WithErrorHandler(func(err error) { got = append(got, err) }))
	c.Errored(&TransportError{Op: "read", Err: errors.New("reset")})

	if len(got) != 1 {
		t.Fatalf("handler called %d times, want 1", len(got))
	}
	var terr *TransportError
	if !errors.As(got[0], &terr) || terr.Op != "read" {
		t.Errorf("err = %v, want read TransportError", got[0])
	}
	if tr.Closed() {
		t.Error("transport closed under HandleErrors")
	}
	if err := c.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}
