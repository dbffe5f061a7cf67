package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/filter"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// resolveFilter picks the --filter flag value, falling back to the configured default.
func resolveFilter(cfg *config.Config, flagValue string) (filter.Filter, error) {
	if flagValue != "" {
		return filter.Parse(flagValue)
	}
	return filter.Parse(cfg.DefaultFilter)
}

// openSession builds a session over svc and fetches the tasks for f.
func openSession(ctx context.Context, cfg *config.Config, svc service.Service, f filter.Filter) (*session.Session, error) {
	logger := log.Logger
	sess := session.New(svc, session.Options{
		Filter:      f,
		Concurrency: cfg.Concurrency,
		Logger:      &logger,
	})
	if err := sess.Load(ctx); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// reportBackendError prints err and returns the matching exit code.
func reportBackendError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrUnauthorized):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// pickTasks maps 1-based numbers onto the visible list.
func pickTasks(visible []service.Task, nums []int) ([]service.Task, error) {
	picked := make([]service.Task, 0, len(nums))
	for _, n := range nums {
		if n < 1 || n > len(visible) {
			return nil, fmt.Errorf("task number out of range: %d", n)
		}
		picked = append(picked, visible[n-1])
	}
	return picked, nil
}
