package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/coordinator"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&DoneAllCmd{})
	Register(&ClearCmd{})
}

// DoneAllCmd implements the done-all command.
type DoneAllCmd struct {
	filter string
}

// SetFilter sets the filter flag (for testing).
func (c *DoneAllCmd) SetFilter(f string) {
	c.filter = f
}

func (c *DoneAllCmd) Name() string       { return "done-all" }
func (c *DoneAllCmd) Aliases() []string  { return []string{"check-all"} }
func (c *DoneAllCmd) Synopsis() string   { return "Mark every pending task completed" }
func (c *DoneAllCmd) Usage() string      { return "tasksync done-all [--filter <f>]" }
func (c *DoneAllCmd) NeedsBackend() bool { return true }

func (c *DoneAllCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *DoneAllCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	f, err := resolveFilter(cfg, c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	sess, err := openSession(ctx, cfg, svc, f)
	if err != nil {
		return reportBackendError(errOut, err)
	}
	defer sess.Close()

	if !sess.Model.Affordances().CompleteAll {
		if !cfg.Quiet {
			fmt.Fprintln(out, "nothing to complete")
		}
		return exitcode.Success
	}

	res := sess.Coordinator.CompleteAllPending(ctx)
	return reportBulk(cfg, res, "completed", out, errOut)
}

// ClearCmd implements the clear command.
type ClearCmd struct {
	filter string
}

// SetFilter sets the filter flag (for testing).
func (c *ClearCmd) SetFilter(f string) {
	c.filter = f
}

func (c *ClearCmd) Name() string       { return "clear" }
func (c *ClearCmd) Aliases() []string  { return []string{"rm-all"} }
func (c *ClearCmd) Synopsis() string   { return "Delete every listed task" }
func (c *ClearCmd) Usage() string      { return "tasksync clear [--filter <f>]" }
func (c *ClearCmd) NeedsBackend() bool { return true }

func (c *ClearCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "filter", "", "")
	fs.StringVar(&c.filter, "f", "", "")
}

func (c *ClearCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	f, err := resolveFilter(cfg, c.filter)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	sess, err := openSession(ctx, cfg, svc, f)
	if err != nil {
		return reportBackendError(errOut, err)
	}
	defer sess.Close()

	if !sess.Model.Affordances().DeleteAll {
		if !cfg.Quiet {
			fmt.Fprintln(out, "nothing to delete")
		}
		return exitcode.Success
	}

	res := sess.Coordinator.DeleteAllList(ctx)
	return reportBulk(cfg, res, "deleted", out, errOut)
}

// reportBulk prints a bulk summary. Partial failure gets its own exit code.
func reportBulk(cfg *config.Config, res coordinator.BulkResult, verb string, out, errOut io.Writer) int {
	failed := res.Failed()
	if len(failed) == 0 {
		if !cfg.Quiet {
			fmt.Fprintf(out, "ok: %d %s\n", res.Succeeded(), verb)
		}
		return exitcode.Success
	}

	fmt.Fprintf(errOut, "error: %d of %d failed: %s\n", len(failed), len(res.Results), strings.Join(res.FailedIDs(), ", "))
	for _, r := range failed {
		fmt.Fprintf(errOut, "  %s: %v\n", r.TaskID, r.Err)
	}
	if res.Partial() {
		return exitcode.PartialFailure
	}
	return reportBackendError(io.Discard, failed[0].Err)
}
