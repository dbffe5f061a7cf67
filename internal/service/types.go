// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
)

// Status is the completion state of a task.
type Status string

const (
	// StatusPending marks a task that still needs doing.
	StatusPending Status = "pending"

	// StatusCompleted marks a finished task.
	StatusCompleted Status = "completed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusPending, StatusCompleted}

// ParseStatus converts user or wire input into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("invalid status: %q", s)
	}
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Task represents a single task item.
type Task struct {
	ID     string
	Body   string
	Status Status
}

// IsCompleted reports whether the task is completed.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}
