// Package filter holds the status filter behind the all/pending/completed tabs.
package filter

import (
	"fmt"
	"strings"
	"sync"

	"tasksync/internal/service"
)

// Filter restricts which tasks are displayed.
type Filter string

const (
	All       Filter = "all"
	Pending   Filter = "pending"
	Completed Filter = "completed"
)

// Filters returns the selectable filters in tab order.
func Filters() []Filter {
	return []Filter{All, Pending, Completed}
}

// Parse converts user or config input into a Filter.
// Empty input means All.
func Parse(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return All, nil
	case All, Pending, Completed:
		return f, nil
	default:
		return "", fmt.Errorf("invalid filter: %s (want all, pending or completed)", s)
	}
}

// String implements fmt.Stringer.
func (f Filter) String() string { return string(f) }

// Statuses returns the statuses a query for this filter must request.
func (f Filter) Statuses() []service.Status {
	switch f {
	case Pending:
		return []service.Status{service.StatusPending}
	case Completed:
		return []service.Status{service.StatusCompleted}
	default:
		return []service.Status{service.StatusPending, service.StatusCompleted}
	}
}

// Matches reports whether task belongs to the filtered view.
func (f Filter) Matches(task service.Task) bool {
	switch f {
	case Pending:
		return task.Status == service.StatusPending
	case Completed:
		return task.Status == service.StatusCompleted
	default:
		return true
	}
}

// Next returns the filter after f in tab order, wrapping around.
func (f Filter) Next() Filter {
	all := Filters()
	for i, c := range all {
		if c == f {
			return all[(i+1)%len(all)]
		}
	}
	return All
}

// Prev returns the filter before f in tab order, wrapping around.
func (f Filter) Prev() Filter {
	all := Filters()
	for i, c := range all {
		if c == f {
			return all[(i+len(all)-1)%len(all)]
		}
	}
	return All
}

// Selector holds the active filter for a session.
type Selector struct {
	mu       sync.RWMutex
	active   Filter
	onChange []func(Filter)
}

// NewSelector creates a selector starting at initial.
// An empty or unknown initial filter starts at All.
func NewSelector(initial Filter) *Selector {
	if _, err := Parse(string(initial)); err != nil || initial == "" {
		initial = All
	}
	return &Selector{active: initial}
}

// OnChange registers fn to be called after every SetActive.
func (s *Selector) OnChange(fn func(Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// SetActive records f as the active filter and notifies listeners so the
// visible set is re-derived and refetched. Selecting the current filter
// notifies as well.
func (s *Selector) SetActive(f Filter) {
	s.mu.Lock()
	s.active = f
	listeners := make([]func(Filter), len(s.onChange))
	copy(listeners, s.onChange)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(f)
	}
}

// Active returns the active filter.
func (s *Selector) Active() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}
