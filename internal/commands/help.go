package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. The command list is generated
// from Registry, or DefaultRegistry when it is nil.
type HelpCmd struct {
	Registry *Registry
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "tasksync help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	registry := c.Registry
	if registry == nil {
		registry = DefaultRegistry
	}

	fmt.Fprint(out, helpHeader)
	for _, cmd := range registry.All() {
		fmt.Fprintf(out, "  %s\n      %s", cmd.Usage(), cmd.Synopsis())
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			fmt.Fprintf(out, " (also: %s)", strings.Join(aliases, ", "))
		}
		fmt.Fprintln(out)
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpHeader = `Usage:
  tasksync [command] [common flags] [flags] [args]

Without a command, tasksync lists tasks under the default filter.

Commands:
`

const helpFooter = `
Task numbers refer to the list printed under the same filter.
They may be given as "3", "2-5" or "1,4".

Filters: all, pending, completed.

Common flags:
  --config <dir>     Override config directory
  --backend <name>   Task service: local, rest or google
  --quiet            Suppress informational output
  --debug            Print debug logs to stderr
`
