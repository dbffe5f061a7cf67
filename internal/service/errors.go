package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the task does not exist on the backend.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when a backend call did not finish in time.
	ErrTimeout = errors.New("request timed out")

	// ErrUnauthorized is returned when the backend rejects our credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned when the backend cannot be reached.
	ErrUnavailable = errors.New("backend unavailable")
)

// ValidationError reports input rejected before any remote call.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RemoteError wraps a failed backend call.
type RemoteError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *RemoteError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError wraps err as a RemoteError. Returns nil for a nil err.
func NewRemoteError(op, taskID string, err error) error {
	if err == nil {
		return nil
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return err
	}
	return &RemoteError{Op: op, TaskID: taskID, Err: err}
}

// IsRemote reports whether err came from the backend rather than from validation.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// ValidateTaskID rejects empty ids and ids containing whitespace or control characters.
func ValidateTaskID(id string) error {
	if id == "" {
		return &ValidationError{Field: "task id", Reason: "empty"}
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return &ValidationError{Field: "task id", Value: id, Reason: "contains whitespace or control characters"}
		}
	}
	return nil
}

// ValidateBody rejects empty or whitespace-only bodies.
func ValidateBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return &ValidationError{Field: "body", Reason: "empty"}
	}
	return nil
}
