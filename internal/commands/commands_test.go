package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/commands"
	"tasksync/internal/config"
	"tasksync/internal/exitcode"
	"tasksync/internal/service"
	"tasksync/internal/testutil"
)

// runCommand is a helper to run a command with FakeService.
func runCommand(t *testing.T, cmd commands.Command, svc service.Service, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer

	cfg := &config.Config{
		Dir:         t.TempDir(),
		Quiet:       quiet,
		Concurrency: 4,
	}

	code = cmd.Run(context.Background(), cfg, svc, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// seeded returns the three-task list used throughout: a pending, b completed, c pending.
func seeded() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "a", service.StatusPending)
	svc.AddTask("2", "b", service.StatusCompleted)
	svc.AddTask("3", "c", service.StatusPending)
	return svc
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "tasksync 0.1.0\n", stdout)
}

func TestHelpCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	testutil.GoldenString(t, "help", stdout)
}

// Every registered command should appear in help.
func TestHelpCoversRegistry(t *testing.T) {
	stdout, _, _ := runCommand(t, &commands.HelpCmd{}, nil, nil, false)
	for _, cmd := range commands.DefaultRegistry.All() {
		assert.Contains(t, stdout, "tasksync "+cmd.Name(), "command %s missing from help", cmd.Name())
	}
}

func TestListCommand_All(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, seeded(), nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "[all]  pending  completed\n"+
		"   1  [ ] a\n"+
		"   2  [x] b\n"+
		"   3  [ ] c\n", stdout)
}

func TestListCommand_Filtered(t *testing.T) {
	tests := []struct {
		filter string
		want   string
	}{
		{"pending", "all  [pending]  completed\n   1  [ ] a\n   2  [ ] c\n"},
		{"completed", "all  pending  [completed]\n   1  [x] b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			svc := seeded()
			cmd := &commands.ListCmd{}
			cmd.SetFilter(tt.filter)

			stdout, _, code := runCommand(t, cmd, svc, nil, false)

			assert.Equal(t, exitcode.Success, code)
			assert.Equal(t, tt.want, stdout)

			// The query is scoped to the tab's statuses.
			queries := svc.CallsOf("query")
			require.Len(t, queries, 1)
			assert.Equal(t, []service.Status{service.Status(tt.filter)}, queries[0].Statuses)
		})
	}
}

func TestListCommand_InvalidFilter(t *testing.T) {
	svc := seeded()
	cmd := &commands.ListCmd{}
	cmd.SetFilter("someday")

	_, stderr, code := runCommand(t, cmd, svc, nil, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "someday")
	assert.Empty(t, svc.Calls())
}

func TestListCommand_Empty(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "[all]  pending  completed\nno tasks found\n", stdout)
}

func TestListCommand_EmptyQuiet(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.ListCmd{}, testutil.NewFakeService(), nil, true)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Empty(t, stdout)
}

func TestListCommand_BackendErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unavailable", service.ErrUnavailable, exitcode.BackendError},
		{"unauthorized", service.ErrUnauthorized, exitcode.AuthError},
		{"other", errors.New("boom"), exitcode.BackendError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := seeded()
			svc.QueryAllErr = tt.err

			stdout, stderr, code := runCommand(t, &commands.ListCmd{}, svc, nil, false)

			assert.Equal(t, tt.code, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "error:")
		})
	}
}

func TestListCommand_UnexpectedArg(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.ListCmd{}, seeded(), []string{"extra"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "unexpected argument")
}

func TestAddCommand(t *testing.T) {
	svc := seeded()

	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"Buy", "milk"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "ok\n", stdout)

	creates := svc.CallsOf("create")
	require.Len(t, creates, 1)
	assert.Equal(t, "Buy milk", creates[0].Body)
	assert.Len(t, svc.Tasks(), 4)
}

func TestAddCommand_EmptyBody(t *testing.T) {
	svc := seeded()

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{" "}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "body required")
	assert.Empty(t, svc.Calls())
}

func TestAddCommand_BackendFailure(t *testing.T) {
	svc := seeded()
	svc.CreateErr = service.ErrUnavailable

	_, stderr, code := runCommand(t, &commands.AddCmd{}, svc, []string{"x"}, false)

	assert.Equal(t, exitcode.BackendError, code)
	assert.Contains(t, stderr, "backend error")
}

func TestDoneCommand(t *testing.T) {
	svc := seeded()

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"3"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "ok\n", stdout)

	updates := svc.CallsOf("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "3", updates[0].TaskID)
	assert.Equal(t, service.StatusCompleted, updates[0].Status)
}

// Numbers refer to the list under the selected filter.
func TestDoneCommand_NumbersFollowFilter(t *testing.T) {
	svc := seeded()
	cmd := &commands.DoneCmd{}
	cmd.SetFilter("pending")

	_, _, code := runCommand(t, cmd, svc, []string{"2"}, false)

	assert.Equal(t, exitcode.Success, code)
	updates := svc.CallsOf("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "3", updates[0].TaskID)
}

func TestDoneCommand_AlreadyCompletedIssuesNothing(t *testing.T) {
	svc := seeded()

	_, _, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"2"}, true)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, svc.CallsOf("update"))
}

func TestDoneCommand_OutOfRangeIssuesNothing(t *testing.T) {
	svc := seeded()

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1", "9"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "out of range: 9")
	assert.Zero(t, svc.MutationCount())
}

func TestDoneCommand_HugeRangeRejected(t *testing.T) {
	svc := seeded()

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1-50000000"}, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "task range too large")
	assert.Empty(t, svc.Calls())
}

func TestDoneCommand_PartialFailure(t *testing.T) {
	svc := seeded()
	svc.UpdateErr["1"] = service.ErrUnavailable

	_, stderr, code := runCommand(t, &commands.DoneCmd{}, svc, []string{"1,3"}, false)

	assert.Equal(t, exitcode.PartialFailure, code)
	assert.Contains(t, stderr, "backend error")
	assert.Len(t, svc.CallsOf("update"), 2)
	assert.Equal(t, service.StatusCompleted, svc.Tasks()[2].Status)
}

func TestRmCommand(t *testing.T) {
	svc := seeded()

	stdout, _, code := runCommand(t, &commands.RmCmd{}, svc, []string{"1-2"}, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok\n", stdout)
	require.Len(t, svc.Tasks(), 1)
	assert.Equal(t, "3", svc.Tasks()[0].ID)
}

func TestRmCommand_NotFound(t *testing.T) {
	svc := seeded()
	svc.DeleteErr["2"] = service.ErrNotFound

	_, stderr, code := runCommand(t, &commands.RmCmd{}, svc, []string{"2"}, false)

	assert.Equal(t, exitcode.BackendError, code)
	assert.Contains(t, stderr, "backend error")
	assert.Len(t, svc.Tasks(), 3)
}

func TestRmCommand_RefRequired(t *testing.T) {
	_, stderr, code := runCommand(t, &commands.RmCmd{}, seeded(), nil, false)

	assert.Equal(t, exitcode.UserError, code)
	assert.Contains(t, stderr, "task reference required")
}

func TestDoneAllCommand(t *testing.T) {
	svc := seeded()

	stdout, stderr, code := runCommand(t, &commands.DoneAllCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Empty(t, stderr)
	assert.Equal(t, "ok: 2 completed\n", stdout)
	assert.ElementsMatch(t, []string{"1", "3"}, []string{
		svc.CallsOf("update")[0].TaskID,
		svc.CallsOf("update")[1].TaskID,
	})
}

func TestDoneAllCommand_DisabledOnCompletedTab(t *testing.T) {
	svc := seeded()
	cmd := &commands.DoneAllCmd{}
	cmd.SetFilter("completed")

	stdout, _, code := runCommand(t, cmd, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "nothing to complete\n", stdout)
	assert.Zero(t, svc.MutationCount())
}

func TestDoneAllCommand_NothingPending(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "a", service.StatusCompleted)

	stdout, _, code := runCommand(t, &commands.DoneAllCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "nothing to complete\n", stdout)
	assert.Zero(t, svc.MutationCount())
}

func TestDoneAllCommand_PartialFailure(t *testing.T) {
	svc := seeded()
	svc.UpdateErr["3"] = errors.New("boom")

	_, stderr, code := runCommand(t, &commands.DoneAllCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.PartialFailure, code)
	assert.Contains(t, stderr, "1 of 2 failed: 3")
	assert.Equal(t, service.StatusCompleted, svc.Tasks()[0].Status)
	assert.Equal(t, service.StatusPending, svc.Tasks()[2].Status)
}

func TestClearCommand(t *testing.T) {
	svc := seeded()

	stdout, _, code := runCommand(t, &commands.ClearCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "ok: 3 deleted\n", stdout)
	assert.Len(t, svc.CallsOf("delete"), 3)
	assert.Empty(t, svc.Tasks())
}

func TestClearCommand_ScopedToFilter(t *testing.T) {
	svc := seeded()
	cmd := &commands.ClearCmd{}
	cmd.SetFilter("completed")

	_, _, code := runCommand(t, cmd, svc, nil, true)

	assert.Equal(t, exitcode.Success, code)
	deletes := svc.CallsOf("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "2", deletes[0].TaskID)
}

func TestClearCommand_Empty(t *testing.T) {
	svc := testutil.NewFakeService()

	stdout, _, code := runCommand(t, &commands.ClearCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.Success, code)
	assert.Equal(t, "nothing to delete\n", stdout)
	assert.Empty(t, svc.CallsOf("delete"))
}

func TestClearCommand_AllFail(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "a", service.StatusPending)
	svc.DeleteErr["1"] = service.ErrUnauthorized

	_, stderr, code := runCommand(t, &commands.ClearCmd{}, svc, nil, false)

	assert.Equal(t, exitcode.AuthError, code)
	assert.Contains(t, stderr, "1 of 1 failed")
}
