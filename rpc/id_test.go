package rpc

import (
	"encoding/json"
	"testing"
)

// RandomID is allowed to collide; with 2^32 values and this many draws a
// collision is expected far less than once per run.
func TestRandomIDDistinct(t *testing.T) {
	t.Parallel()

	const count = 10000
	seen := make(map[uint32]bool, count)
	collisions := 0
	for i := 0; i < count; i++ {
		id := RandomID()
		if seen[id] {
			collisions++
		}
		seen[id] = true
	}
	if collisions > 2 {
		t.Errorf("%d collisions in %d ids", collisions, count)
	}
}

func TestConsecutiveDispatchesUseDistinctIDs(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(WithIDAllocator(RandomID))
	noop := func(error, json.RawMessage) {}
	same := 0
	for i := 0; i < 1000; i++ {
		a, err := c.Dispatch(FetchLastHeightCommand, nil, noop)
		if err != nil {
			t.Fatal(err)
		}
		b, err := c.Dispatch(FetchLastHeightCommand, nil, noop)
		if err != nil {
			t.Fatal(err)
		}
		if a.ID() == b.ID() {
			same++
		}
		a.Cancel()
		b.Cancel()
	}
	if same > 1 {
		t.Errorf("%d of 1000 consecutive pairs shared an id", same)
	}
}
