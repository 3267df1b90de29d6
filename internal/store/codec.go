package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// record is the persisted shape of a Task. DueDate travels as text and is
// turned back into a time on decode.
type record struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"dueDate,omitempty"`
	AssignedTo  string   `json:"assignedTo,omitempty"`
	Column      Column   `json:"column"`
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable date %q", ErrInvalid, s)
}

func encodeTasks(tasks []Task) (string, error) {
	recs := make([]record, 0, len(tasks))
	for _, t := range tasks {
		r := record{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Priority:    t.Priority,
			Tags:        t.Tags,
			AssignedTo:  t.AssignedTo,
			Column:      t.Column,
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		if t.DueDate != nil {
			r.DueDate = t.DueDate.Format(time.RFC3339Nano)
		}
		recs = append(recs, r)
	}
	b, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTasks returns the tasks and the ids whose dueDate could not be parsed.
// Those tasks are kept without a due date.
func decodeTasks(data string) ([]Task, []string, error) {
	var recs []record
	if err := json.Unmarshal([]byte(data), &recs); err != nil {
		return nil, nil, err
	}
	tasks := make([]Task, 0, len(recs))
	var badDates []string
	for _, r := range recs {
		t := Task{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Priority:    r.Priority,
			Tags:        r.Tags,
			AssignedTo:  r.AssignedTo,
			Column:      r.Column,
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
		if strings.TrimSpace(r.DueDate) != "" {
			d, err := ParseDueDate(r.DueDate)
			if err != nil {
				badDates = append(badDates, r.ID)
			} else {
				t.DueDate = &d
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, badDates, nil
}

// repairs lists the ids changed by repairTasks, by kind.
type repairs struct {
	columns    []string
	priorities []string
	duplicates []string
}

// repairTasks brings loaded tasks back within the model invariants. Tags are
// normalized, an unknown column becomes To Do, an unknown priority becomes
// Medium, and a repeated id keeps only its first task.
func repairTasks(in []Task) ([]Task, repairs) {
	var r repairs
	seen := map[string]bool{}
	out := make([]Task, 0, len(in))
	for _, t := range in {
		if seen[t.ID] {
			r.duplicates = append(r.duplicates, t.ID)
			continue
		}
		seen[t.ID] = true
		t.Tags = NormalizeTags(t.Tags)
		if !t.Column.Valid() {
			if c, err := ParseColumn(string(t.Column)); err == nil {
				t.Column = c
			} else {
				r.columns = append(r.columns, t.ID)
				t.Column = ColumnTodo
			}
		}
		if !t.Priority.Valid() {
			p, err := ParsePriority(string(t.Priority))
			if err != nil {
				r.priorities = append(r.priorities, t.ID)
				p = PriorityMedium
			}
			t.Priority = p
		}
		out = append(out, t)
	}
	return out, r
}
