// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasksync/internal/filter"
	"tasksync/internal/service"
)

const (
	checkedBox   = "[x]"
	uncheckedBox = "[ ]"
)

// FormatTask formats one task line.
// Format: "{N:>4}  [x] {BODY}\n" (4-wide right-aligned number, two spaces, checkbox, body)
func FormatTask(w io.Writer, num int, task service.Task) {
	box := uncheckedBox
	if task.IsCompleted() {
		box = checkedBox
	}
	fmt.Fprintf(w, "%4d  %s %s\n", num, box, NormalizeBody(task.Body))
}

// FormatTabs formats the filter tabs, bracketing the active one.
// Format: "[all]  pending  completed\n"
func FormatTabs(w io.Writer, active filter.Filter) {
	parts := make([]string, 0, len(filter.Filters()))
	for _, f := range filter.Filters() {
		if f == active {
			parts = append(parts, "["+f.String()+"]")
		} else {
			parts = append(parts, f.String())
		}
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

// NormalizeBody normalizes a task body for single-line display.
// - Empty or whitespace-only bodies become "(untitled)"
// - Newlines are replaced with spaces
func NormalizeBody(body string) string {
	body = strings.ReplaceAll(body, "\r", " ")
	body = strings.ReplaceAll(body, "\n", " ")

	if strings.TrimSpace(body) == "" {
		return "(untitled)"
	}
	return body
}
