// Package cache holds the client's copy of the fetched task set.
//
// The copy is read-only: it is replaced wholesale by each refetch response
// and never patched in place, so readers always see a set the backend
// actually returned.
package cache

import (
	"context"
	"sync"
	"time"

	"tasksync/internal/service"
)

// Querier is the read side of service.Service.
type Querier interface {
	QueryAll(ctx context.Context, statuses []service.Status) ([]service.Task, error)
}

// Cache is the last fetched task set.
type Cache struct {
	q Querier

	mu        sync.Mutex
	tasks     []service.Task
	loaded    bool
	invalid   bool
	invalidAt uint64 // latest request issued when Invalidate was called
	issued    uint64 // sequence of the latest refetch request
	applied   uint64 // sequence of the response currently held
	inflight  int
	fetchedAt time.Time
}

// New creates an empty cache reading through q.
func New(q Querier) *Cache {
	return &Cache{q: q}
}

// Refetch queries the backend and replaces the held set with the response.
// A response older than the one already applied is discarded, so a slow
// refetch cannot roll the view back past a newer one.
// Returns the set held after the call.
func (c *Cache) Refetch(ctx context.Context, statuses []service.Status) ([]service.Task, error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.inflight++
	c.mu.Unlock()

	tasks, err := c.q.QueryAll(ctx, statuses)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	if err != nil {
		return copyTasks(c.tasks), err
	}
	if seq > c.applied {
		c.tasks = dedupe(tasks)
		c.applied = seq
		c.loaded = true
		c.fetchedAt = time.Now()
		// Only a request issued after the invalidation can clear it.
		if seq > c.invalidAt {
			c.invalid = false
		}
	}
	return copyTasks(c.tasks), nil
}

// Snapshot returns a copy of the held set.
func (c *Cache) Snapshot() []service.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTasks(c.tasks)
}

// Invalidate marks the held set as out of date until a refetch issued
// after this call lands.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid = true
	c.invalidAt = c.issued
}

// Stale reports whether the held set may not reflect the backend yet:
// nothing fetched so far, invalidated, or a refetch still outstanding.
func (c *Cache) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.loaded || c.invalid || c.inflight > 0
}

// Loaded reports whether at least one refetch has succeeded.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// FetchedAt returns when the held set was received.
func (c *Cache) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchedAt
}

func copyTasks(tasks []service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}

// dedupe keeps the first occurrence of each id.
func dedupe(tasks []service.Task) []service.Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
