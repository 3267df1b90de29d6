// Package form turns task fields edited as plain strings into a validated
// task and saves it.
package form

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/amirbrooks/taskboard/internal/store"
)

// DateLayout is the due date format the form reads and writes.
const DateLayout = "2006-01-02"

// Saver is the part of the task store a form writes to.
type Saver interface {
	Add(ctx context.Context, in store.NewTask) (store.Task, error)
	Update(ctx context.Context, task store.Task) error
}

// ValidationError lists the fields that blocked a submit.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// Is lets callers match a ValidationError with store.ErrInvalid.
func (e *ValidationError) Is(target error) bool {
	return target == store.ErrInvalid
}

type Form struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
	AssignedTo  string

	original *store.Task
	tags     []string
}

// New opens a form. A nil task means a new task; otherwise the fields are
// filled from t.
func New(t *store.Task) *Form {
	f := &Form{Priority: string(store.PriorityMedium), tags: []string{}}
	if t == nil {
		return f
	}
	orig := t.Clone()
	f.original = &orig
	f.Title = t.Title
	f.Description = t.Description
	if t.Priority != "" {
		f.Priority = string(t.Priority)
	}
	if t.DueDate != nil {
		f.DueDate = t.DueDate.Format(DateLayout)
	}
	f.AssignedTo = t.AssignedTo
	f.tags = append(f.tags, t.Tags...)
	return f
}

// Editing reports whether the form edits an existing task.
func (f *Form) Editing() bool { return f.original != nil }

// Original returns the task being edited, if any.
func (f *Form) Original() (store.Task, bool) {
	if f.original == nil {
		return store.Task{}, false
	}
	return f.original.Clone(), true
}

func (f *Form) Tags() []string { return append([]string(nil), f.tags...) }

// AddTag appends a trimmed tag. Empty input and duplicates are ignored.
func (f *Form) AddTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	for _, t := range f.tags {
		if t == tag {
			return false
		}
	}
	f.tags = append(f.tags, tag)
	return true
}

func (f *Form) RemoveTag(tag string) bool {
	for i, t := range f.tags {
		if t == tag {
			f.tags = append(f.tags[:i:i], f.tags[i+1:]...)
			return true
		}
	}
	return false
}

// Cancel drops all edits and returns the form to its opening state.
func (f *Form) Cancel() {
	*f = *New(f.original)
}

// Validate checks the fields without saving.
func (f *Form) Validate() error {
	_, _, err := f.values()
	return err
}

func (f *Form) values() (store.Priority, *time.Time, error) {
	problems := map[string]string{}
	if strings.TrimSpace(f.Title) == "" {
		problems["title"] = "required"
	}
	p, err := store.ParsePriority(f.Priority)
	if err != nil {
		problems["priority"] = "must be one of Low, Medium, High"
	}
	var due *time.Time
	if s := strings.TrimSpace(f.DueDate); s != "" && f.keepsOriginalDue(s) {
		d := *f.original.DueDate
		due = &d
	} else if s != "" {
		d, err := store.ParseDueDate(s)
		if err != nil {
			problems["dueDate"] = "expected " + DateLayout
		} else {
			due = &d
		}
	}
	if len(problems) > 0 {
		return "", nil, &ValidationError{Fields: problems}
	}
	return p, due, nil
}

// keepsOriginalDue reports whether s is the unchanged due date of the edited
// task, so its time of day survives a save.
func (f *Form) keepsOriginalDue(s string) bool {
	return f.original != nil && f.original.DueDate != nil && s == f.original.DueDate.Format(DateLayout)
}

// Submit validates the form and saves it: Add for a new task, Update for an
// edited one. On a validation error nothing is written.
func (f *Form) Submit(ctx context.Context, s Saver) (store.Task, error) {
	priority, due, err := f.values()
	if err != nil {
		return store.Task{}, err
	}
	if f.original == nil {
		return s.Add(ctx, store.NewTask{
			Title:       f.Title,
			Description: f.Description,
			Priority:    priority,
			Tags:        f.Tags(),
			DueDate:     due,
			AssignedTo:  f.AssignedTo,
		})
	}
	task := f.original.Clone()
	task.Title = strings.TrimSpace(f.Title)
	task.Description = f.Description
	task.Priority = priority
	task.Tags = f.Tags()
	task.DueDate = due
	task.AssignedTo = strings.TrimSpace(f.AssignedTo)
	if err := s.Update(ctx, task); err != nil {
		return store.Task{}, err
	}
	return task, nil
}
