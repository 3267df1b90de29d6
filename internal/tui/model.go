// Package tui is the interactive terminal board: three columns, keyboard
// card moves, search and tag filtering, and an add/edit dialog.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/form"
	"github.com/amirbrooks/taskboard/internal/logging"
	"github.com/amirbrooks/taskboard/internal/render"
	"github.com/amirbrooks/taskboard/internal/store"
	"github.com/amirbrooks/taskboard/internal/tui/styles"
)

// Store is what the board reads and writes.
type Store interface {
	board.TaskStore
	form.Saver
	Remove(ctx context.Context, id string) error
}

type mode int

const (
	modeBoard mode = iota
	modeSearch
	modeEdit
	modeConfirmDelete
)

type Model struct {
	ctx    context.Context
	store  Store
	board  *board.Board
	logger *log.Logger
	user   string

	view    board.Grouped
	allTags []string
	tagIdx  int // position in allTags of the active tag filter, -1 for none

	col, row int
	mode     mode
	search   textinput.Model
	editor   editorModel

	status string
	err    error
	width  int
	height int
}

func New(ctx context.Context, st Store, logger *log.Logger) Model {
	if logger == nil {
		logger = logging.Discard()
	}
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search titles"
	search.CharLimit = 128
	m := Model{
		ctx:    ctx,
		store:  st,
		board:  board.New(st),
		logger: logger,
		tagIdx: -1,
		search: search,
	}
	m.reload()
	return m
}

// WithUser sets the name shown in the header.
func (m Model) WithUser(name string) Model {
	m.user = strings.TrimSpace(name)
	return m
}

// Run starts the board in the alternate screen and blocks until quit.
func Run(ctx context.Context, st Store, logger *log.Logger, user string) error {
	p := tea.NewProgram(New(ctx, st, logger).WithUser(user), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m *Model) reload() {
	g, err := m.board.Grouped(m.ctx)
	if err != nil {
		m.err = err
		m.logger.Error("load board", "err", err)
		return
	}
	m.view = g
	if tags, err := m.board.AllTags(m.ctx); err == nil {
		m.allTags = tags
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.col < 0 {
		m.col = 0
	}
	if m.col >= len(store.Columns) {
		m.col = len(store.Columns) - 1
	}
	n := len(m.view[store.Columns[m.col]])
	if m.row >= n {
		m.row = n - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

// Selected returns the task under the cursor.
func (m Model) Selected() (store.Task, bool) {
	tasks := m.view[store.Columns[m.col]]
	if m.row < 0 || m.row >= len(tasks) {
		return store.Task{}, false
	}
	return tasks[m.row], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEditor(msg)
		case modeConfirmDelete:
			return m.updateConfirmDelete(msg)
		default:
			return m.updateBoard(msg)
		}
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.col--
	case "right", "l":
		m.col++
	case "up", "k":
		m.row--
	case "down", "j":
		m.row++
	case "shift+left", "H":
		m.moveCard(m.col-1, m.row)
	case "shift+right", "L":
		m.moveCard(m.col+1, m.row)
	case "shift+up", "K":
		m.moveCard(m.col, m.row-1)
	case "shift+down", "J":
		m.moveCard(m.col, m.row+1)
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.board.Search())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "t":
		m.cycleTag()
	case "T":
		m.tagIdx = -1
		m.board.SetTags(nil)
		m.reload()
	case "esc":
		m.tagIdx = -1
		m.board.ClearFilter()
		m.search.SetValue("")
		m.reload()
	case "r":
		m.reload()
	case "n":
		m.editor = newEditor(nil)
		m.mode = modeEdit
		return m, textinput.Blink
	case "e", "enter":
		if t, ok := m.Selected(); ok {
			m.editor = newEditor(&t)
			m.mode = modeEdit
			return m, textinput.Blink
		}
	case "d", "x":
		if _, ok := m.Selected(); ok {
			m.mode = modeConfirmDelete
		}
	}
	m.clampCursor()
	return m, nil
}

// moveCard drops the selected card at (col, row) of the current view.
func (m *Model) moveCard(col, row int) {
	if col < 0 || col >= len(store.Columns) {
		return
	}
	sel, ok := m.Selected()
	if !ok {
		return
	}
	if col == m.col && (row < 0 || row >= len(m.view[store.Columns[col]])) {
		return
	}
	src, dst := store.Columns[m.col], store.Columns[col]
	task, err := m.board.Reorder(m.ctx, src, dst, m.row, row)
	if err != nil {
		m.err = err
		m.logger.Error("move card", "id", sel.ID, "err", err)
		return
	}
	m.logger.Debug("moved card", "id", task.ID, "from", src, "to", dst, "index", row)
	m.reload()
	m.col = col
	m.row = indexOf(m.view[dst], task.ID, row)
	m.clampCursor()
}

func indexOf(tasks []store.Task, id string, fallback int) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return fallback
}

func (m *Model) cycleTag() {
	if len(m.allTags) == 0 {
		m.status = "no tags to filter by"
		return
	}
	m.tagIdx++
	if m.tagIdx >= len(m.allTags) {
		m.tagIdx = -1
		m.board.SetTags(nil)
	} else {
		m.board.SetTags([]string{m.allTags[m.tagIdx]})
	}
	m.row = 0
	m.reload()
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBoard
		m.search.Blur()
		return m, nil
	case "esc":
		m.mode = modeBoard
		m.search.Blur()
		m.search.SetValue("")
		m.board.SetSearch("")
		m.reload()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.board.SetSearch(m.search.Value())
	m.row = 0
	m.reload()
	return m, cmd
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(m.ctx, m.store, msg)
	switch m.editor.result {
	case editorSaved:
		m.mode = modeBoard
		saved := m.editor.saved
		m.status = fmt.Sprintf("saved %q", saved.Title)
		m.reload()
		for i, c := range store.Columns {
			if c == saved.Column {
				m.col = i
				m.row = indexOf(m.view[c], saved.ID, m.row)
			}
		}
		m.clampCursor()
	case editorCancelled:
		m.mode = modeBoard
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBoard
	if msg.String() != "y" {
		return m, nil
	}
	t, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if err := m.store.Remove(m.ctx, t.ID); err != nil {
		m.err = err
		return m, nil
	}
	m.status = fmt.Sprintf("deleted %q", t.Title)
	m.reload()
	return m, nil
}

func (m Model) View() string {
	if m.mode == modeEdit {
		return m.editor.View()
	}
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Task Board"))
	if m.user != "" {
		b.WriteString("  ")
		b.WriteString(styles.SubtleStyle.Render("signed in as " + m.user))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderColumns())
	b.WriteString("\n")
	b.WriteString(m.renderFilter())
	b.WriteString("\n")
	switch {
	case m.mode == modeConfirmDelete:
		if t, ok := m.Selected(); ok {
			b.WriteString(styles.ErrorStyle.Render(fmt.Sprintf("Delete %q? (y/n)", t.Title)))
		}
	case m.err != nil:
		b.WriteString(styles.ErrorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(styles.SuccessStyle.Render(m.status))
	default:
		b.WriteString(styles.StatusBarStyle.Render("hjkl move • H/L/J/K drag card • / search • t tag • T clear tag • n new • e edit • d delete • q quit"))
	}
	return b.String()
}

func (m Model) columnWidth() int {
	if m.width <= 0 {
		return 30
	}
	w := m.width/len(store.Columns) - 4
	if w < 16 {
		w = 16
	}
	return w
}

func (m Model) renderColumns() string {
	width := m.columnWidth()
	cols := make([]string, 0, len(store.Columns))
	for i, c := range store.Columns {
		var b strings.Builder
		tasks := m.view[c]
		b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("%s (%d)", c, len(tasks))))
		b.WriteString("\n")
		if len(tasks) == 0 {
			b.WriteString(styles.SubtleStyle.Render("empty"))
		}
		for j, t := range tasks {
			b.WriteString(m.renderCard(t, i == m.col && j == m.row, width))
			b.WriteString("\n")
		}
		style := styles.ColumnStyle
		if i == m.col {
			style = styles.ActiveColumnStyle
		}
		cols = append(cols, style.Width(width).Render(strings.TrimRight(b.String(), "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderCard(t store.Task, selected bool, width int) string {
	title := render.Truncate(render.CleanTitle(t.Title), width-4, false)
	style := styles.CardStyle
	cursor := "  "
	if selected {
		style = styles.SelectedCardStyle
		cursor = "> "
	}
	line := cursor + styles.Priority(t.Priority).Render(t.Priority.Abbrev()) + " " + style.Render(title)
	var meta []string
	if t.DueDate != nil {
		meta = append(meta, "due "+render.Due(t.DueDate))
	}
	if t.AssignedTo != "" {
		meta = append(meta, "@"+t.AssignedTo)
	}
	if len(meta) > 0 {
		line += "\n    " + styles.SubtleStyle.Render(strings.Join(meta, " "))
	}
	if len(t.Tags) > 0 {
		line += "\n    " + styles.TagStyle.Render("#"+strings.Join(t.Tags, " #"))
	}
	return line
}

func (m Model) renderFilter() string {
	if m.mode == modeSearch {
		return m.search.View()
	}
	var parts []string
	if s := m.board.Search(); s != "" {
		parts = append(parts, fmt.Sprintf("search %q", s))
	}
	if tags := m.board.Tags(); len(tags) > 0 {
		parts = append(parts, "tags "+strings.Join(tags, ", "))
	}
	if len(parts) == 0 {
		return styles.SubtleStyle.Render("no filter")
	}
	return styles.SubtleStyle.Render("filter: " + strings.Join(parts, " • "))
}
