// Package tui is the interactive terminal client. It renders the session's
// visible set and issues mutations through the coordinator.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasksync/internal/coordinator"
	"tasksync/internal/events"
	"tasksync/internal/filter"
	"tasksync/internal/service"
	"tasksync/internal/session"
)

// eventBuffer bounds the events queued between the bus and the program.
// The view is re-read from the session on every render, so a dropped
// event only delays a repaint.
const eventBuffer = 64

type mode int

const (
	modeList mode = iota
	modeAdd
	modeConfirmDeleteAll
)

// Messages produced by commands.
type (
	eventMsg  events.Event
	resultMsg coordinator.Result
	bulkMsg   coordinator.BulkResult
	loadedMsg struct{ err error }
)

// Model is the bubbletea model.
type Model struct {
	ctx  context.Context
	sess *session.Session

	keys  keyMap
	help  help.Model
	input textinput.Model

	events      <-chan events.Event
	unsubscribe func()

	mode     mode
	cursor   int
	busy     int
	status   string
	failures int
	width    int
}

// New creates a model over sess. Call Close when the program exits.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Task body"
	ti.CharLimit = 256
	ti.Width = 40

	ch := make(chan events.Event, eventBuffer)
	unsubscribe := sess.Bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
		}
	})

	return Model{
		ctx:         ctx,
		sess:        sess,
		keys:        defaultKeyMap(),
		help:        help.New(),
		input:       ti,
		events:      ch,
		unsubscribe: unsubscribe,
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session) error {
	m := New(ctx, sess)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// Close detaches the model from the session's bus.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.load())
}

func (m Model) waitForEvent() tea.Cmd {
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

func (m Model) load() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return loadedMsg{err: sess.Load(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
		return m, nil

	case eventMsg:
		m.applyEvent(events.Event(msg))
		return m, m.waitForEvent()

	case loadedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("refresh failed: %v", msg.err)
		}
		m.clampCursor()
		return m, nil

	case resultMsg:
		m.busy--
		res := coordinator.Result(msg)
		if res.Outcome == coordinator.OutcomeSkipped {
			m.status = "already completed"
		}
		m.clampCursor()
		return m, nil

	case bulkMsg:
		m.busy--
		res := coordinator.BulkResult(msg)
		switch {
		case res.Noop():
			m.status = "nothing to do"
		case len(res.Failed()) > 0:
			m.status = fmt.Sprintf("%s: %d of %d failed", res.Op, len(res.Failed()), len(res.Results))
		default:
			m.status = fmt.Sprintf("%s: %d done", res.Op, res.Succeeded())
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(msg)
		case modeConfirmDeleteAll:
			return m.updateConfirmMode(msg)
		default:
			return m.updateListMode(msg)
		}
	}
	return m, nil
}

func (m *Model) applyEvent(e events.Event) {
	switch e.Kind {
	case events.MutationFailed:
		m.failures++
		m.status = fmt.Sprintf("%s %s failed: %v", e.Op, e.TaskID, e.Err)
	case events.RefetchFailed:
		m.failures++
		m.status = fmt.Sprintf("refresh failed: %v", e.Err)
	case events.Refetched, events.FilterChanged:
		m.clampCursor()
	}
}

func (m Model) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The visible set can shrink on a command goroutine before the matching
	// event reaches Update, so the cursor is checked against this read.
	visible := m.sess.Visible()
	m.clampTo(len(visible))

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextTab):
		return m, m.setFilter(m.sess.Model.Filter().Next())
	case key.Matches(msg, m.keys.PrevTab):
		return m, m.setFilter(m.sess.Model.Filter().Prev())
	case key.Matches(msg, m.keys.TabAll):
		return m, m.setFilter(filter.All)
	case key.Matches(msg, m.keys.TabPending):
		return m, m.setFilter(filter.Pending)
	case key.Matches(msg, m.keys.TabComplete):
		return m, m.setFilter(filter.Completed)
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Complete):
		if len(visible) == 0 {
			return m, nil
		}
		return m.mutate(visible[m.cursor], m.sess.Coordinator.Complete)
	case key.Matches(msg, m.keys.Delete):
		if len(visible) == 0 {
			return m, nil
		}
		return m.mutate(visible[m.cursor], m.sess.Coordinator.Delete)
	case key.Matches(msg, m.keys.CompleteAll):
		if !m.sess.Model.Affordances().CompleteAll {
			return m, nil
		}
		return m.bulk(m.sess.Coordinator.CompleteAllPending)
	case key.Matches(msg, m.keys.DeleteAll):
		if !m.sess.Model.Affordances().DeleteAll {
			return m, nil
		}
		m.mode = modeConfirmDeleteAll
		m.status = fmt.Sprintf("Delete all %d tasks? y/n", len(visible))
	case key.Matches(msg, m.keys.New):
		m.mode = modeAdd
		m.input.SetValue("")
		m.status = "New task: type a body and press enter"
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()
	}
	return m, nil
}

func (m Model) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = "cancelled"
		return m, nil
	case tea.KeyEnter:
		body := strings.TrimSpace(m.input.Value())
		if body == "" {
			m.status = "body cannot be empty"
			return m, nil
		}
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = ""
		m.busy++
		ctx, coord := m.ctx, m.sess.Coordinator
		return m, func() tea.Msg {
			return resultMsg(coord.Create(ctx, body))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeList
	switch msg.String() {
	case "y", "Y":
		return m.bulk(m.sess.Coordinator.DeleteAllList)
	default:
		m.status = "cancelled"
		return m, nil
	}
}

func (m Model) setFilter(f filter.Filter) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return loadedMsg{err: sess.Model.SetFilter(ctx, f)}
	}
}

func (m Model) mutate(task service.Task, fn func(context.Context, service.Task) coordinator.Result) (tea.Model, tea.Cmd) {
	m.busy++
	m.status = ""
	ctx := m.ctx
	return m, func() tea.Msg {
		return resultMsg(fn(ctx, task))
	}
}

func (m Model) bulk(fn func(context.Context) coordinator.BulkResult) (tea.Model, tea.Cmd) {
	m.busy++
	m.status = ""
	ctx := m.ctx
	return m, func() tea.Msg {
		return bulkMsg(fn(ctx))
	}
}

func (m *Model) clampCursor() {
	m.clampTo(len(m.sess.Visible()))
}

func (m *Model) clampTo(n int) {
	switch {
	case n == 0 || m.cursor < 0:
		m.cursor = 0
	case m.cursor >= n:
		m.cursor = n - 1
	}
}
