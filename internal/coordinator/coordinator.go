// Package coordinator turns user intents into backend mutations and keeps
// the cached task set in step with the backend afterwards.
//
// Every acknowledged mutation invalidates the cache and triggers its own
// refetch for the active filter. Failed mutations are logged, counted and
// returned as a Result; they never abort sibling requests of a bulk
// operation.
package coordinator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tasksync/internal/cache"
	"tasksync/internal/events"
	"tasksync/internal/filter"
	"tasksync/internal/service"
)

// DefaultConcurrency bounds how many requests a bulk operation keeps in flight.
const DefaultConcurrency = 8

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithConcurrency sets the bulk fan-out limit. Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithLogger sets the logger used for failures and request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// Coordinator applies mutations and reconciles the cache.
type Coordinator struct {
	svc      service.Service
	cache    *cache.Cache
	selector *filter.Selector
	bus      *events.Bus
	log      zerolog.Logger
	limit    int

	inflight sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

// New creates a coordinator for svc. The coordinator owns the task cache.
func New(svc service.Service, selector *filter.Selector, bus *events.Bus, opts ...Option) *Coordinator {
	c := &Coordinator{
		svc:      svc,
		cache:    cache.New(svc),
		selector: selector,
		bus:      bus,
		log:      zerolog.Nop(),
		limit:    DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the task cache the coordinator keeps current.
func (c *Coordinator) Cache() *cache.Cache {
	return c.cache
}

// Refresh refetches the tasks the active filter needs and publishes the result.
func (c *Coordinator) Refresh(ctx context.Context) error {
	active := c.selector.Active()
	tasks, err := c.cache.Refetch(ctx, active.Statuses())

	c.mu.Lock()
	c.stats.Refetches++
	if err != nil {
		c.stats.RefetchFailures++
		c.stats.LastErr = err
	}
	c.mu.Unlock()

	if err != nil {
		err = service.NewRemoteError("query", "", err)
		c.log.Warn().Err(err).Str("filter", active.String()).Msg("refetch failed")
		c.bus.Publish(events.Event{Kind: events.RefetchFailed, Op: events.OpRefetch, Filter: active, Err: err})
		return err
	}

	c.log.Debug().Str("filter", active.String()).Int("tasks", len(tasks)).Msg("refetched")
	c.bus.Publish(events.Event{Kind: events.Refetched, Op: events.OpRefetch, Filter: active, Tasks: tasks})
	return nil
}

// Complete marks task completed. A task that is already completed is
// skipped without a request.
func (c *Coordinator) Complete(ctx context.Context, task service.Task) Result {
	if task.IsCompleted() {
		c.mu.Lock()
		c.stats.Skipped++
		c.mu.Unlock()
		return Result{Op: events.OpComplete, TaskID: task.ID, Outcome: OutcomeSkipped}
	}
	if err := service.ValidateTaskID(task.ID); err != nil {
		return c.fail(events.OpComplete, task.ID, err)
	}
	return c.mutate(ctx, events.OpComplete, task.ID, func(ctx context.Context) (string, error) {
		return task.ID, c.svc.UpdateStatus(ctx, task.ID, service.StatusCompleted)
	})
}

// Delete removes task.
func (c *Coordinator) Delete(ctx context.Context, task service.Task) Result {
	if err := service.ValidateTaskID(task.ID); err != nil {
		return c.fail(events.OpDelete, task.ID, err)
	}
	return c.mutate(ctx, events.OpDelete, task.ID, func(ctx context.Context) (string, error) {
		return task.ID, c.svc.Delete(ctx, task.ID)
	})
}

// Create adds a pending task with body.
func (c *Coordinator) Create(ctx context.Context, body string) Result {
	if err := service.ValidateBody(body); err != nil {
		return c.fail(events.OpCreate, "", err)
	}
	return c.mutate(ctx, events.OpCreate, "", func(ctx context.Context) (string, error) {
		task, err := c.svc.Create(ctx, body)
		return task.ID, err
	})
}

// CompleteAllPending completes every pending task of the current fetched
// set. Nothing is issued when no task is pending.
func (c *Coordinator) CompleteAllPending(ctx context.Context) BulkResult {
	var pending []service.Task
	for _, t := range c.cache.Snapshot() {
		if !t.IsCompleted() {
			pending = append(pending, t)
		}
	}
	return c.fanOut(ctx, events.OpComplete, pending, c.Complete)
}

// DeleteAllList deletes every task of the current fetched set.
func (c *Coordinator) DeleteAllList(ctx context.Context) BulkResult {
	return c.fanOut(ctx, events.OpDelete, c.cache.Snapshot(), c.Delete)
}

// Wait blocks until no mutation is in flight.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// Stats returns a copy of the counters.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.FailedIDs = append([]string(nil), c.stats.FailedIDs...)
	return s
}

// fanOut runs fn for each task independently. Requests race; a failure
// never cancels its siblings.
func (c *Coordinator) fanOut(ctx context.Context, op events.Op, tasks []service.Task, fn func(context.Context, service.Task) Result) BulkResult {
	if len(tasks) == 0 {
		return BulkResult{Op: op}
	}

	results := make([]Result, len(tasks))
	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, t := range tasks {
		g.Go(func() error {
			results[i] = fn(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	res := BulkResult{Op: op, Results: results}
	if failed := res.Failed(); len(failed) > 0 {
		c.log.Warn().
			Str("op", string(op)).
			Int("total", len(results)).
			Int("failed", len(failed)).
			Strs("failed_ids", res.FailedIDs()).
			Msg("bulk operation finished with failures")
	}
	return res
}

// mutate issues one request, then invalidates and refetches on success.
// do returns the id of the affected task.
func (c *Coordinator) mutate(ctx context.Context, op events.Op, taskID string, do func(context.Context) (string, error)) Result {
	c.inflight.Add(1)
	defer c.inflight.Done()

	c.mu.Lock()
	c.stats.Issued++
	c.mu.Unlock()

	c.log.Debug().Str("op", string(op)).Str("task_id", taskID).Msg("issuing request")
	id, err := do(ctx)
	if err != nil {
		return c.fail(op, taskID, service.NewRemoteError(string(op), taskID, err))
	}
	if id == "" {
		id = taskID
	}

	c.mu.Lock()
	c.stats.Succeeded++
	c.mu.Unlock()

	c.cache.Invalidate()
	c.bus.Publish(events.Event{Kind: events.MutationSucceeded, Op: op, TaskID: id})

	// A failed refetch leaves the view stale; the mutation itself still succeeded.
	_ = c.Refresh(ctx)

	return Result{Op: op, TaskID: id, Outcome: OutcomeSucceeded}
}

func (c *Coordinator) fail(op events.Op, taskID string, err error) Result {
	c.mu.Lock()
	c.stats.Failed++
	c.stats.LastErr = err
	if taskID != "" {
		c.stats.FailedIDs = append(c.stats.FailedIDs, taskID)
	}
	c.mu.Unlock()

	c.log.Warn().Err(err).Str("op", string(op)).Str("task_id", taskID).Msg("mutation failed")
	c.bus.Publish(events.Event{Kind: events.MutationFailed, Op: op, TaskID: taskID, Err: err})
	return Result{Op: op, TaskID: taskID, Outcome: OutcomeFailed, Err: err}
}
