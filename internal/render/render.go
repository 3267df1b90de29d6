// Package render formats the board and single tasks as text.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/store"
)

const (
	FormatText     = "text"
	FormatTelegram = "telegram"
)

var timeNow = time.Now

type Options struct {
	Title  string
	ASCII  bool
	Format string
	// Width truncates card titles; zero means 80.
	Width int
}

// Board renders the grouped view. Empty columns are skipped.
func Board(g board.Grouped, opts Options) string {
	if isTelegram(opts.Format) {
		return Telegram(g, opts.Title)
	}
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	var b strings.Builder
	if opts.Title != "" {
		b.WriteString(opts.Title + "\n\n")
	}
	wroteAny := false
	for _, c := range store.Columns {
		tasks := g[c]
		if len(tasks) == 0 {
			continue
		}
		if wroteAny {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%s (%d)\n", c, len(tasks)))
		for _, t := range tasks {
			b.WriteString(fmt.Sprintf("  - [%s] %s%s\n", t.Priority.Abbrev(), Truncate(CleanTitle(t.Title), width, opts.ASCII), dueSuffix(t.DueDate)))
		}
		wroteAny = true
	}
	if !wroteAny {
		b.WriteString("(no tasks)\n")
	}
	return b.String()
}

// Task renders every field of t for the show command.
func Task(t store.Task) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n", t.Title))
	b.WriteString(fmt.Sprintf("ID: %s\n", t.ID))
	b.WriteString(fmt.Sprintf("Column: %s\n", t.Column))
	b.WriteString(fmt.Sprintf("Priority: %s\n", t.Priority))
	if t.DueDate != nil {
		b.WriteString(fmt.Sprintf("Due: %s (%s)\n", t.DueDate.Format("2006-01-02"), Due(t.DueDate)))
	}
	if t.AssignedTo != "" {
		b.WriteString(fmt.Sprintf("Assigned to: %s\n", t.AssignedTo))
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(t.Tags, ", ")))
	}
	if strings.TrimSpace(t.Description) != "" {
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(t.Description, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// Due describes a due date relative to now, e.g. "3 days from now".
func Due(due *time.Time) string {
	if due == nil {
		return ""
	}
	return humanize.RelTime(*due, timeNow(), "ago", "from now")
}

// DueShort is the compact form used in tables: "Jan 02", with the year
// when it differs from the current one.
func DueShort(due *time.Time) string {
	if due == nil {
		return "-"
	}
	if due.Year() == timeNow().Year() {
		return due.Format("Jan 02")
	}
	return due.Format("Jan 02 2006")
}

func dueSuffix(due *time.Time) string {
	if due == nil {
		return ""
	}
	return fmt.Sprintf(" (due %s)", DueShort(due))
}

// CleanTitle flattens line breaks and substitutes a placeholder for an
// empty title.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func Truncate(s string, n int, ascii bool) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	if ascii {
		return string(r[:n-2]) + ".."
	}
	return string(r[:n-1]) + "…"
}
