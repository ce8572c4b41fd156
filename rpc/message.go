package rpc

import (
	"encoding/json"
	"fmt"
)

// UpdateName is the value of the name field that marks a pushed update.
const UpdateName = "update"

type Request struct {
	ID      uint32  `json:"id"`
	Command Command `json:"command"`
	Params  []any   `json:"params"`
}

type Response struct {
	ID     uint32            `json:"id"`
	Error  json.RawMessage   `json:"error"`
	Result []json.RawMessage `json:"result"`
}

// Update is a pushed notification for a subscribed address, delivered as the
// full decoded object.
type Update map[string]any

func (u Update) Address() string {
	s, _ := u["address"].(string)
	return s
}

// frame is the union of the response and update shapes, used by the router
// to decide where an inbound message goes.
type frame struct {
	ID      *uint32           `json:"id"`
	Name    string            `json:"name"`
	Address string            `json:"address"`
	Error   json.RawMessage   `json:"error"`
	Result  []json.RawMessage `json:"result"`
}

func (f *frame) isUpdate() bool {
	return f.Name == UpdateName
}

// first returns result[0], or nil when the result is empty.
func (f *frame) first() json.RawMessage {
	if len(f.Result) == 0 {
		return nil
	}
	return f.Result[0]
}

// remoteError returns nil when the error field is absent or null.
func (f *frame) remoteError() error {
	if len(f.Error) == 0 || string(f.Error) == "null" {
		return nil
	}
	return &RemoteError{Raw: f.Error}
}

// RemoteError carries the error value reported by the server in a response.
type RemoteError struct {
	Raw json.RawMessage
}

func (e *RemoteError) Error() string {
	var s string
	if err := json.Unmarshal(e.Raw, &s); err == nil {
		return fmt.Sprintf("remote error: %s", s)
	}
	return fmt.Sprintf("remote error: %s", string(e.Raw))
}
