package rpc

import (
	"fmt"
	"sync"
	"sync/atomic"
)

type KeyKind int

const (
	RequestKind KeyKind = iota
	TopicKind
)

// Key identifies a pending registration. Request ids and topic names live in
// separate keyspaces and never compare equal.
type Key struct {
	Kind  KeyKind
	ID    uint32
	Topic string
}

func RequestKey(id uint32) Key {
	return Key{Kind: RequestKind, ID: id}
}

// TopicKey returns the key update frames for the given address are routed to.
func TopicKey(address string) Key {
	return Key{Kind: TopicKind, Topic: TopicName(address)}
}

func TopicName(address string) string {
	return "address." + address
}

func (k Key) String() string {
	if k.Kind == TopicKind {
		return k.Topic
	}
	return fmt.Sprintf("request.%d", k.ID)
}

type entry struct {
	key      Key
	onResult Handler
	onUpdate UpdateHandler

	// delivered is set once a response reached onResult.
	delivered atomic.Bool
}

type table struct {
	mu      sync.Mutex
	entries map[Key]*entry
}

func newTable() *table {
	return &table{entries: make(map[Key]*entry)}
}

// register stores e and returns the entry it replaced, if any.
func (t *table) register(e *entry) *entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.entries[e.key]
	t.entries[e.key] = e
	return prev
}

func (t *table) lookup(k Key) (*entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[k]
	return e, ok
}

// remove deletes the registration for e.key only while it is still e.
func (t *table) remove(e *entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.entries[e.key]; ok && cur == e {
		delete(t.entries, e.key)
		return true
	}
	return false
}

func (t *table) drain() []*entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*entry, 0, len(t.entries))
	for k, e := range t.entries {
		out = append(out, e)
		delete(t.entries, k)
	}
	return out
}

func (t *table) topics() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for k := range t.entries {
		if k.Kind == TopicKind {
			out = append(out, k.Topic)
		}
	}
	return out
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
