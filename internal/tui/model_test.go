package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/filter"
	"tasksync/internal/service"
	"tasksync/internal/session"
	"tasksync/internal/testutil"
)

func newTestModel(t *testing.T, svc *testutil.FakeService) Model {
	t.Helper()
	ctx := context.Background()
	sess := session.New(svc, session.Options{Filter: filter.All, Concurrency: 4})
	require.NoError(t, sess.Load(ctx))
	svc.ResetCalls()

	m := New(ctx, sess)
	t.Cleanup(func() {
		m.Close()
		sess.Close()
	})
	return m
}

func seeded() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "a", service.StatusPending)
	svc.AddTask("2", "b", service.StatusCompleted)
	svc.AddTask("3", "c", service.StatusPending)
	return svc
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// press sends msg and returns the updated model plus the command it produced.
func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes cmd, feeds its message back and then applies every queued
// bus event.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = press(t, m, cmd())
	return drain(t, m)
}

func drain(t *testing.T, m Model) Model {
	t.Helper()
	for {
		select {
		case e := <-m.events:
			m, _ = press(t, m, eventMsg(e))
		default:
			return m
		}
	}
}

func TestSpaceCompletesTaskUnderCursor(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = run(t, m, cmd)

	updates := svc.CallsOf("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "1", updates[0].TaskID)
	assert.Equal(t, service.StatusCompleted, m.sess.Visible()[0].Status)
	assert.Equal(t, 0, m.busy)
}

func TestCursorMovesWithinList(t *testing.T) {
	m := newTestModel(t, seeded())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)

	m, _ = press(t, m, keyRune('k'))
	assert.Equal(t, 1, m.cursor)
}

func TestDeleteUnderCursor(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := press(t, m, keyRune('x'))
	m = run(t, m, cmd)

	deletes := svc.CallsOf("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "2", deletes[0].TaskID)
	assert.Len(t, m.sess.Visible(), 2)
}

func TestKeyPressAfterListShrinksOutsideUpdate(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.cursor)

	// The refetch lands while its events are still queued for Update.
	res := m.sess.Coordinator.Delete(context.Background(), service.Task{ID: "3", Body: "c", Status: service.StatusPending})
	require.NoError(t, res.Err)
	require.Len(t, m.sess.Visible(), 2)

	var cmd tea.Cmd
	require.NotPanics(t, func() {
		m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	})
	assert.Equal(t, 1, m.cursor)

	m = run(t, m, cmd)
	assert.Empty(t, svc.CallsOf("update"), "task 2 is already completed")
	assert.Equal(t, "already completed", m.status)
}

func TestNumberKeysSwitchFilter(t *testing.T) {
	m := newTestModel(t, seeded())

	m, cmd := press(t, m, keyRune('2'))
	m = run(t, m, cmd)

	assert.Equal(t, filter.Pending, m.sess.Model.Filter())
	for _, task := range m.sess.Visible() {
		assert.Equal(t, service.StatusPending, task.Status)
	}
	assert.Contains(t, m.View(), "2:pending")

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = run(t, m, cmd)
	assert.Equal(t, filter.Completed, m.sess.Model.Filter())
}

func TestCompleteAllIgnoredOnCompletedTab(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, cmd := press(t, m, keyRune('3'))
	m = run(t, m, cmd)
	svc.ResetCalls()

	_, cmd = press(t, m, keyRune('A'))
	assert.Nil(t, cmd)
	assert.Empty(t, svc.CallsOf("update"))
}

func TestCompleteAll(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, cmd := press(t, m, keyRune('A'))
	m = run(t, m, cmd)

	assert.Len(t, svc.CallsOf("update"), 2)
	assert.Equal(t, "complete: 2 done", m.status)
	assert.False(t, m.sess.Model.Affordances().CompleteAll)
}

func TestDeleteAllAsksForConfirmation(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, cmd := press(t, m, keyRune('D'))
	assert.Nil(t, cmd)
	assert.Equal(t, modeConfirmDeleteAll, m.mode)

	m, cmd = press(t, m, keyRune('n'))
	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, svc.CallsOf("delete"))

	m, _ = press(t, m, keyRune('D'))
	m, cmd = press(t, m, keyRune('y'))
	m = run(t, m, cmd)

	assert.Len(t, svc.CallsOf("delete"), 3)
	assert.Empty(t, m.sess.Visible())
	assert.Contains(t, m.View(), "No data")
}

func TestNewTaskCreates(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, _ = press(t, m, keyRune('n'))
	assert.Equal(t, modeAdd, m.mode)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("milk")})
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd)

	creates := svc.CallsOf("create")
	require.Len(t, creates, 1)
	assert.Equal(t, "milk", creates[0].Body)
	assert.Equal(t, modeList, m.mode)
	assert.Len(t, m.sess.Visible(), 4)
}

func TestNewTaskRejectsEmptyBody(t *testing.T) {
	svc := seeded()
	m := newTestModel(t, svc)

	m, _ = press(t, m, keyRune('n'))
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "body cannot be empty", m.status)
	assert.Empty(t, svc.CallsOf("create"))
}

func TestFailureIsCountedInStatusLine(t *testing.T) {
	svc := seeded()
	svc.UpdateErr["1"] = errors.New("boom")
	m := newTestModel(t, svc)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m = run(t, m, cmd)

	assert.Equal(t, 1, m.failures)
	assert.Contains(t, m.status, "boom")
	assert.Contains(t, m.View(), "1 failed")
	assert.Equal(t, service.StatusPending, m.sess.Visible()[0].Status)
}

func TestEmptyListShowsNoData(t *testing.T) {
	m := newTestModel(t, testutil.NewFakeService())

	view := m.View()
	assert.Contains(t, view, "No data")

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, seeded())

	_, cmd := press(t, m, keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
