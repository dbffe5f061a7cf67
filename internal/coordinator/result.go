package coordinator

import (
	"tasksync/internal/events"
)

// Outcome is how a single mutation request ended.
type Outcome int

const (
	// OutcomeSucceeded means the backend acknowledged the mutation.
	OutcomeSucceeded Outcome = iota + 1

	// OutcomeFailed means validation or the backend rejected the mutation.
	OutcomeFailed

	// OutcomeSkipped means no request was needed (completing a completed task).
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result is the outcome of one mutation. Err is set only when Outcome is OutcomeFailed.
type Result struct {
	Op      events.Op
	TaskID  string
	Outcome Outcome
	Err     error
}

// OK reports whether the mutation did not fail.
func (r Result) OK() bool {
	return r.Outcome != OutcomeFailed
}

// BulkResult collects the per-task results of a bulk operation.
// Results is empty when the operation was a no-op.
type BulkResult struct {
	Op      events.Op
	Results []Result
}

// Noop reports whether the bulk operation issued nothing.
func (b BulkResult) Noop() bool {
	return len(b.Results) == 0
}

// Succeeded returns how many mutations were acknowledged.
func (b BulkResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == OutcomeSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the failed results.
func (b BulkResult) Failed() []Result {
	var failed []Result
	for _, r := range b.Results {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FailedIDs returns the ids of the failed results.
func (b BulkResult) FailedIDs() []string {
	var ids []string
	for _, r := range b.Failed() {
		ids = append(ids, r.TaskID)
	}
	return ids
}

// Partial reports whether some but not all mutations failed.
func (b BulkResult) Partial() bool {
	failed := len(b.Failed())
	return failed > 0 && failed < len(b.Results)
}

// Stats counts what the coordinator has done since it was created.
type Stats struct {
	Issued          int
	Succeeded       int
	Failed          int
	Skipped         int
	Refetches       int
	RefetchFailures int
	FailedIDs       []string
	LastErr         error
}
