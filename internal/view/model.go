package view

import (
	"context"
	"sync"

	"tasksync/internal/events"
	"tasksync/internal/filter"
	"tasksync/internal/service"
)

// Snapshotter exposes the last fetched task set.
type Snapshotter interface {
	Snapshot() []service.Task
}

// Refresher refetches the task set for the active filter.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Model keeps the visible set current. It re-derives from the cache on
// every filter change and on every refetch. Refetched events may be
// delivered out of order, so the event payload is never used; the cache
// already discards responses older than the one it holds.
type Model struct {
	selector  *filter.Selector
	source    Snapshotter
	refresher Refresher

	mu      sync.RWMutex
	visible []service.Task
	version uint64

	unsubscribe func()
}

// NewModel creates a model and subscribes it to bus.
func NewModel(selector *filter.Selector, source Snapshotter, refresher Refresher, bus *events.Bus) *Model {
	m := &Model{
		selector:  selector,
		source:    source,
		refresher: refresher,
	}
	m.visible = DeriveVisible(source.Snapshot(), selector.Active())
	m.unsubscribe = bus.Subscribe(m.handle)
	return m
}

func (m *Model) handle(e events.Event) {
	switch e.Kind {
	case events.FilterChanged, events.Refetched:
		m.derive()
	}
}

// derive reads the cache while holding the lock so the last derivation to
// run always sees the newest applied response.
func (m *Model) derive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visible = DeriveVisible(m.source.Snapshot(), m.selector.Active())
	m.version++
}

// SetFilter activates f and refetches the statuses it needs. The visible
// set is re-derived from the cached tasks right away and again when the
// refetch lands.
func (m *Model) SetFilter(ctx context.Context, f filter.Filter) error {
	m.selector.SetActive(f)
	return m.refresher.Refresh(ctx)
}

// Filter returns the active filter.
func (m *Model) Filter() filter.Filter {
	return m.selector.Active()
}

// Visible returns a copy of the visible set.
func (m *Model) Visible() []service.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]service.Task, len(m.visible))
	copy(out, m.visible)
	return out
}

// Version increments on every re-derivation.
func (m *Model) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Affordances returns the bulk actions currently available.
func (m *Model) Affordances() Affordances {
	return AffordancesFor(m.Visible(), m.Filter())
}

// Close detaches the model from the bus.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}
