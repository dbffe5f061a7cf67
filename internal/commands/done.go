package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasksync/internal/config"
	"tasksync/internal/coordinator"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

func init() {
	Register(&DoneCmd{})
	Register(&RmCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct {
	filter string
}

// SetFilter sets the filter flag (for testing).
func (c *DoneCmd) SetFilter(f string) {
	c.filter = f
}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return []string{"check"} }
func (c *DoneCmd) Synopsis() string   { return "Mark tasks completed" }
func (c *DoneCmd) Usage() string      { return "tasksync done [--filter <f>] <n...>" }
func (c *DoneCmd) NeedsBackend() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runPerTask(ctx, cfg, svc, c.filter, args, out, errOut, func(sess *session.Session, task service.Task) coordinator.Result {
		return sess.Coordinator.Complete(ctx, task)
	})
}

// RmCmd implements the rm command.
type RmCmd struct {
	filter string
}

// SetFilter sets the filter flag (for testing).
func (c *RmCmd) SetFilter(f string) {
	c.filter = f
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete tasks" }
func (c *RmCmd) Usage() string      { return "tasksync rm [--filter <f>] <n...>" }
func (c *RmCmd) NeedsBackend() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	return runPerTask(ctx, cfg, svc, c.filter, args, out, errOut, func(sess *session.Session, task service.Task) coordinator.Result {
		return sess.Coordinator.Delete(ctx, task)
	})
}

// runPerTask resolves task numbers against the visible list and applies
// apply to each. Every task is attempted even if an earlier one fails.
func runPerTask(ctx context.Context, cfg *config.Config, svc service.Service, filterFlag string, args []string, out, errOut io.Writer, apply func(*session.Session, service.Task) coordinator.Result) int {
	nums, err := ParseTaskRefs(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	f, err := resolveFilter(cfg, filterFlag)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	sess, err := openSession(ctx, cfg, svc, f)
	if err != nil {
		return reportBackendError(errOut, err)
	}
	defer sess.Close()

	// Resolve every number before issuing anything.
	tasks, err := pickTasks(sess.Visible(), nums)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	failed := 0
	code := exitcode.Success
	for _, task := range tasks {
		res := apply(sess, task)
		if !res.OK() {
			failed++
			code = reportBackendError(errOut, res.Err)
		}
	}

	if failed > 0 && failed < len(tasks) {
		return exitcode.PartialFailure
	}
	if failed == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return code
}
