// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for remote task backend operations.
// All backend calls go through this interface; the view and
// coordinator layers never import a backend SDK directly.
type Service interface {
	// QueryAll returns every task whose status is in statuses,
	// in the order the backend returns them.
	// Safe to call any number of times.
	QueryAll(ctx context.Context, statuses []Status) ([]Task, error)

	// UpdateStatus sets the status of a task.
	UpdateStatus(ctx context.Context, taskID string, status Status) error

	// Delete removes a task.
	Delete(ctx context.Context, taskID string) error

	// Create adds a new pending task and returns it as stored.
	Create(ctx context.Context, body string) (Task, error)
}
