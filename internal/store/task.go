package store

import (
	"fmt"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the valid priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type Column string

const (
	ColumnTodo       Column = "To Do"
	ColumnInProgress Column = "In Progress"
	ColumnDone       Column = "Done"
)

// Columns lists the board columns in display order.
var Columns = []Column{ColumnTodo, ColumnInProgress, ColumnDone}

type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	Tags        []string   `json:"tags" yaml:"tags"`
	DueDate     *time.Time `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
	AssignedTo  string     `json:"assignedTo,omitempty" yaml:"assignedTo,omitempty"`
	Column      Column     `json:"column" yaml:"column"`
}

// NewTask is the input for Add: a task without id and column.
type NewTask struct {
	Title       string
	Description string
	Priority    Priority
	Tags        []string
	DueDate     *time.Time
	AssignedTo  string
}

func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnInProgress, ColumnDone:
		return true
	default:
		return false
	}
}

// Key returns the short identifier used on the command line.
func (c Column) Key() string {
	switch c {
	case ColumnTodo:
		return "todo"
	case ColumnInProgress:
		return "doing"
	case ColumnDone:
		return "done"
	default:
		return ""
	}
}

// ParseColumn accepts a display name (any case) or a short key.
func ParseColumn(s string) (Column, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("_", " ", "-", " ").Replace(v)
	switch v {
	case "to do", "todo":
		return ColumnTodo, nil
	case "in progress", "inprogress", "doing", "progress":
		return ColumnInProgress, nil
	case "done":
		return ColumnDone, nil
	}
	return "", fmt.Errorf("%w: unknown column %q", ErrInvalid, s)
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// Abbrev returns the one-letter priority label.
func (p Priority) Abbrev() string {
	switch p {
	case PriorityLow:
		return "L"
	case PriorityMedium:
		return "M"
	case PriorityHigh:
		return "H"
	default:
		return "?"
	}
}

// ParsePriority is case-insensitive. Empty input means Medium.
func ParsePriority(s string) (Priority, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "":
		return PriorityMedium, nil
	case "low", "l":
		return PriorityLow, nil
	case "medium", "med", "m", "normal":
		return PriorityMedium, nil
	case "high", "h":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("%w: unknown priority %q", ErrInvalid, s)
}

// HasTag reports whether the task carries tag exactly.
func (t Task) HasTag(tag string) bool {
	for _, s := range t.Tags {
		if s == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Task) Clone() Task {
	out := t
	if t.Tags != nil {
		out.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		d := *t.DueDate
		out.DueDate = &d
	}
	return out
}

func (t *Task) normalize() error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		p, err := ParsePriority(string(t.Priority))
		if err != nil {
			return err
		}
		t.Priority = p
	}
	if !t.Column.Valid() {
		return fmt.Errorf("%w: unknown column %q", ErrInvalid, t.Column)
	}
	t.AssignedTo = strings.TrimSpace(t.AssignedTo)
	t.Tags = NormalizeTags(t.Tags)
	return nil
}

// NormalizeTags trims tags and drops empty entries and duplicates,
// keeping the first occurrence in insertion order.
func NormalizeTags(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
