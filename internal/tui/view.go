package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tasksync/internal/filter"
	"tasksync/internal/output"
)

var (
	activeTabStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	inactiveTabStyle = lipgloss.NewStyle().Faint(true)
	cursorStyle      = lipgloss.NewStyle().Reverse(true)
	completedStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	disabledStyle    = lipgloss.NewStyle().Faint(true)
	statusStyle      = lipgloss.NewStyle().Italic(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderActions())
	b.WriteString("\n")

	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if line := m.renderStatus(); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTabs() string {
	active := m.sess.Model.Filter()
	tabs := make([]string, 0, len(filter.Filters()))
	for i, f := range filter.Filters() {
		label := fmt.Sprintf("%d:%s", i+1, f)
		if f == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	return strings.Join(tabs, "   ")
}

func (m Model) renderList() string {
	visible := m.sess.Visible()
	if len(visible) == 0 {
		return disabledStyle.Render("No data") + "\n"
	}

	var b strings.Builder
	for i, task := range visible {
		box := "[ ]"
		body := output.NormalizeBody(task.Body)
		if task.IsCompleted() {
			box = "[x]"
			body = completedStyle.Render(body)
		}
		line := fmt.Sprintf("%s %s", box, body)
		if i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderActions() string {
	aff := m.sess.Model.Affordances()
	render := func(label string, enabled bool) string {
		if enabled {
			return label
		}
		return disabledStyle.Render(label)
	}
	return render("[A] complete all", aff.CompleteAll) + "   " + render("[D] delete all", aff.DeleteAll)
}

func (m Model) renderStatus() string {
	var parts []string
	if m.busy > 0 {
		parts = append(parts, "working...")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.failures > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d failed", m.failures)))
	}
	if len(parts) == 0 {
		return ""
	}
	return statusStyle.Render(strings.Join(parts, "  "))
}
