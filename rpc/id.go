package rpc

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// IDAllocator returns the correlation id for a new request.
type IDAllocator func() uint32

// RandomID draws an id from a random UUID. It does not consult the ids that
// are currently in flight, so two live requests may collide, in which case the
// later registration replaces the earlier one.
func RandomID() uint32 {
	id := uuid.New()
	return binary.BigEndian.Uint32(id[:4])
}
