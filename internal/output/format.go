// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"todo/internal/service"
	"todo/internal/view"
)

// Format selects how results are written.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Text, JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (want text, json or yaml)", s)
}

// timeLayout is used for timestamps in text output.
const timeLayout = "2006-01-02 15:04"

// Encode writes v as JSON or YAML. Text is handled by the callers.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %s cannot encode values", format)
}

// FormatTask formats a task line.
// Format: "{ID:>4}  [x] {TITLE}  ({PRIORITY})\n"; the priority part is
// omitted when unset.
func FormatTask(w io.Writer, task service.Task) {
	mark := " "
	if task.Completed {
		mark = "x"
	}
	line := fmt.Sprintf("%4d  [%s] %s", task.ID, mark, normalizeTitle(task.Title))
	if task.Priority != "" {
		line += fmt.Sprintf("  (%s)", task.Priority)
	}
	fmt.Fprintln(w, line)
}

// FormatTasks formats task lines, or a placeholder when there are none.
func FormatTasks(w io.Writer, tasks []service.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}
	for _, t := range tasks {
		FormatTask(w, t)
	}
}

// FormatTaskDetail formats every field of a task, one per line.
func FormatTaskDetail(w io.Writer, task service.Task) {
	status := "pending"
	if task.Completed {
		status = "completed"
	}
	priority := string(task.Priority)
	if priority == "" {
		priority = "-"
	}
	fmt.Fprintf(w, "ID:          %d\n", task.ID)
	fmt.Fprintf(w, "Title:       %s\n", normalizeTitle(task.Title))
	if task.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", flatten(task.Description))
	}
	fmt.Fprintf(w, "Status:      %s\n", status)
	fmt.Fprintf(w, "Priority:    %s\n", priority)
	fmt.Fprintf(w, "Created:     %s\n", formatTime(task.CreatedAt))
	fmt.Fprintf(w, "Updated:     %s\n", formatTime(task.UpdatedAt))
}

// FormatStats formats a completion summary.
func FormatStats(w io.Writer, s view.Stats) {
	fmt.Fprintf(w, "Total:     %d\n", s.Total)
	fmt.Fprintf(w, "Completed: %d\n", s.Completed)
	fmt.Fprintf(w, "Pending:   %d\n", s.Pending)
	fmt.Fprintf(w, "Progress:  %d%%\n", s.Percent)
}

// FormatUser formats the signed-in identity.
func FormatUser(w io.Writer, u service.User) {
	name := u.Name
	if strings.TrimSpace(name) == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "%s <%s>\n", name, u.Email)
	fmt.Fprintf(w, "ID: %s\n", u.ID)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = flatten(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
