// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"tasksync/internal/service"
)

// Call records a single backend call made against FakeService.
type Call struct {
	Op       string // "query", "update", "delete", "create"
	TaskID   string
	Status   service.Status
	Statuses []service.Status
	Body     string
}

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu     sync.Mutex
	tasks  []service.Task
	nextID int
	calls  []Call

	// Error injection for testing
	QueryAllErr error
	UpdateErr   map[string]error // taskID -> error
	DeleteErr   map[string]error // taskID -> error
	CreateErr   error

	// BeforeMutation, if set, runs before every update/delete/create is
	// applied and outside the lock, so tests can hold requests in flight.
	BeforeMutation func(op, taskID string)
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		nextID:    1,
		UpdateErr: make(map[string]error),
		DeleteErr: make(map[string]error),
	}
}

// AddTask seeds a task with an explicit id and status.
func (f *FakeService) AddTask(id, body string, status service.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, service.Task{ID: id, Body: body, Status: status})
	if n, err := strconv.Atoi(id); err == nil && n >= f.nextID {
		f.nextID = n + 1
	}
}

// Tasks returns the backend's current tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns every recorded call in arrival order.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsOf returns recorded calls with the given op.
func (f *FakeService) CallsOf(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// MutationCount returns the number of update, delete and create calls.
func (f *FakeService) MutationCount() int {
	return len(f.CallsOf("update")) + len(f.CallsOf("delete")) + len(f.CallsOf("create"))
}

// ResetCalls clears the call log.
func (f *FakeService) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *FakeService) record(c Call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

// QueryAll implements service.Service.
func (f *FakeService) QueryAll(ctx context.Context, statuses []service.Status) ([]service.Task, error) {
	f.record(Call{Op: "query", Statuses: append([]service.Status(nil), statuses...)})
	if f.QueryAllErr != nil {
		return nil, f.QueryAllErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	want := make(map[service.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var result []service.Task
	for _, t := range f.tasks {
		if want[t.Status] {
			result = append(result, t)
		}
	}
	return result, nil
}

// UpdateStatus implements service.Service.
func (f *FakeService) UpdateStatus(ctx context.Context, taskID string, status service.Status) error {
	f.record(Call{Op: "update", TaskID: taskID, Status: status})
	if f.BeforeMutation != nil {
		f.BeforeMutation("update", taskID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.UpdateErr[taskID]; err != nil {
		return service.NewRemoteError("update", taskID, err)
	}
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks[i].Status = status
			return nil
		}
	}
	return service.NewRemoteError("update", taskID, service.ErrNotFound)
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, taskID string) error {
	f.record(Call{Op: "delete", TaskID: taskID})
	if f.BeforeMutation != nil {
		f.BeforeMutation("delete", taskID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.DeleteErr[taskID]; err != nil {
		return service.NewRemoteError("delete", taskID, err)
	}
	for i, t := range f.tasks {
		if t.ID == taskID {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return service.NewRemoteError("delete", taskID, service.ErrNotFound)
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, body string) (service.Task, error) {
	f.record(Call{Op: "create", Body: body})
	if f.BeforeMutation != nil {
		f.BeforeMutation("create", "")
	}
	if f.CreateErr != nil {
		return service.Task{}, service.NewRemoteError("create", "", f.CreateErr)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	t := service.Task{ID: fmt.Sprint(f.nextID), Body: body, Status: service.StatusPending}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t, nil
}
