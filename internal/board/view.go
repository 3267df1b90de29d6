package board

import (
	"strings"

	"github.com/amirbrooks/taskboard/internal/store"
)

// Grouped is the per-column view of a task list. Every column is present,
// possibly with an empty slice.
type Grouped map[store.Column][]store.Task

// Counts returns the number of tasks per column.
func (g Grouped) Counts() map[store.Column]int {
	out := make(map[store.Column]int, len(store.Columns))
	for _, c := range store.Columns {
		out[c] = len(g[c])
	}
	return out
}

// Flatten returns the tasks column by column in display order.
func (g Grouped) Flatten() []store.Task {
	var out []store.Task
	for _, c := range store.Columns {
		out = append(out, g[c]...)
	}
	return out
}

// Len is the total number of tasks in the view.
func (g Grouped) Len() int {
	n := 0
	for _, c := range store.Columns {
		n += len(g[c])
	}
	return n
}

// Matches reports whether task passes the title search and carries every
// required tag. Empty search and empty tags match everything.
func Matches(task store.Task, search string, tags []string) bool {
	if search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(search)) {
		return false
	}
	for _, tag := range tags {
		if !task.HasTag(tag) {
			return false
		}
	}
	return true
}

// Filter keeps the tasks that match, in input order.
func Filter(tasks []store.Task, search string, tags []string) []store.Task {
	tags = store.NormalizeTags(tags)
	out := []store.Task{}
	for _, t := range tasks {
		if Matches(t, search, tags) {
			out = append(out, t)
		}
	}
	return out
}

// Group filters tasks and partitions them by column. Order within a column
// is the input order.
func Group(tasks []store.Task, search string, tags []string) Grouped {
	g := make(Grouped, len(store.Columns))
	for _, c := range store.Columns {
		g[c] = []store.Task{}
	}
	for _, t := range Filter(tasks, search, tags) {
		if _, ok := g[t.Column]; !ok {
			continue
		}
		g[t.Column] = append(g[t.Column], t)
	}
	return g
}

// AllTags returns every tag used by tasks, once, in first-seen order.
func AllTags(tasks []store.Task) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range tasks {
		for _, tag := range t.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
