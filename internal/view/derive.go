// Package view derives what the task list shows from the fetched set and
// the active filter.
package view

import (
	"tasksync/internal/filter"
	"tasksync/internal/service"
)

// DeriveVisible returns the tasks matching f in their fetched order.
// The result is never nil.
func DeriveVisible(tasks []service.Task, f filter.Filter) []service.Task {
	visible := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// AllCompleted reports whether visible is non-empty and every task in it is completed.
func AllCompleted(visible []service.Task) bool {
	if len(visible) == 0 {
		return false
	}
	for _, t := range visible {
		if !t.IsCompleted() {
			return false
		}
	}
	return true
}

// Affordances says which bulk actions the list offers.
type Affordances struct {
	CompleteAll bool
	DeleteAll   bool
}

// AffordancesFor computes the bulk actions available for visible under f.
// Completing all is pointless on the completed tab, on an empty list, and
// when everything shown is already completed.
func AffordancesFor(visible []service.Task, f filter.Filter) Affordances {
	return Affordances{
		CompleteAll: len(visible) > 0 && f != filter.Completed && !AllCompleted(visible),
		DeleteAll:   len(visible) > 0,
	}
}

// PendingOf returns the pending tasks of tasks in order.
func PendingOf(tasks []service.Task) []service.Task {
	return DeriveVisible(tasks, filter.Pending)
}
