package render

import (
	"fmt"
	"strings"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/store"
)

// Maximum runes in one telegram-formatted message.
const telegramMaxChars = 3800

func isTelegram(format string) bool {
	return strings.ToLower(strings.TrimSpace(format)) == FormatTelegram
}

func trimTelegram(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= telegramMaxChars {
		return s
	}
	suffix := "\n… (truncated)"
	limit := telegramMaxChars - len([]rune(suffix))
	return string(runes[:limit]) + suffix
}

func priorityEmoji(p store.Priority) string {
	switch p {
	case store.PriorityHigh:
		return "🔴"
	case store.PriorityLow:
		return "🟡"
	default:
		return ""
	}
}

func columnEmoji(c store.Column) string {
	switch c {
	case store.ColumnTodo:
		return "📝"
	case store.ColumnInProgress:
		return "🔨"
	case store.ColumnDone:
		return "✅"
	default:
		return ""
	}
}

func telegramLine(t store.Task) string {
	var b strings.Builder
	b.WriteString("• ")
	if e := priorityEmoji(t.Priority); e != "" {
		b.WriteString(e + " ")
	}
	b.WriteString(CleanTitle(t.Title))
	if t.AssignedTo != "" {
		b.WriteString(" @" + t.AssignedTo)
	}
	if t.DueDate != nil {
		b.WriteString(" (due " + DueShort(t.DueDate) + ")")
	}
	b.WriteString("\n")
	return b.String()
}

// Telegram renders the board as a chat message with emoji headers.
func Telegram(g board.Grouped, title string) string {
	if strings.TrimSpace(title) == "" {
		title = "Board"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 Tasks: %s\n\n", title))
	wrote := false
	for _, c := range store.Columns {
		tasks := g[c]
		if len(tasks) == 0 {
			continue
		}
		wrote = true
		b.WriteString(fmt.Sprintf("%s %s (%d)\n", columnEmoji(c), c, len(tasks)))
		for _, t := range tasks {
			b.WriteString(telegramLine(t))
		}
		b.WriteString("\n")
	}
	if !wrote {
		b.WriteString("No tasks.\n")
	}
	return trimTelegram(b.String())
}
