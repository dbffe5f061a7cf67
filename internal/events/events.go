// Package events carries mutation and refetch notifications from the
// coordinator to whoever renders the task list.
package events

import (
	"sort"
	"sync"

	"tasksync/internal/filter"
	"tasksync/internal/service"
)

// Kind identifies what happened.
type Kind int

const (
	FilterChanged Kind = iota + 1
	MutationSucceeded
	MutationFailed
	Refetched
	RefetchFailed
)

func (k Kind) String() string {
	switch k {
	case FilterChanged:
		return "filter_changed"
	case MutationSucceeded:
		return "mutation_succeeded"
	case MutationFailed:
		return "mutation_failed"
	case Refetched:
		return "refetched"
	case RefetchFailed:
		return "refetch_failed"
	default:
		return "unknown"
	}
}

// Op is the remote operation an event refers to.
type Op string

const (
	OpComplete Op = "complete"
	OpDelete   Op = "delete"
	OpCreate   Op = "create"
	OpRefetch  Op = "refetch"
)

// Event is a single notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind   Kind
	Op     Op
	TaskID string
	Filter filter.Filter
	Tasks  []service.Task // Refetched only; owned by the receiver
	Err    error
}

// Handler receives events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Event)

// Bus is a synchronous publish/subscribe hub.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
