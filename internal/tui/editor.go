package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amirbrooks/taskboard/internal/form"
	"github.com/amirbrooks/taskboard/internal/store"
	"github.com/amirbrooks/taskboard/internal/tui/styles"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldPriority
	fieldDue
	fieldAssignee
	fieldTag
	fieldCount
)

var fieldLabels = [fieldCount]string{"Title", "Description", "Priority", "Due", "Assignee", "Add tag"}

var fieldKeys = [fieldCount]string{"title", "description", "priority", "dueDate", "assignedTo", "tags"}

type editorResult int

const (
	editorPending editorResult = iota
	editorSaved
	editorCancelled
)

// editorModel is the add/edit dialog. Field text lives in textinputs until
// submit copies it into the form.
type editorModel struct {
	form   *form.Form
	inputs [fieldCount]textinput.Model
	focus  int
	errs   map[string]string
	result editorResult
	saved  store.Task
}

func newEditor(task *store.Task) editorModel {
	f := form.New(task)
	m := editorModel{form: f}
	values := [fieldCount]string{f.Title, f.Description, f.Priority, f.DueDate, f.AssignedTo, ""}
	placeholders := [fieldCount]string{"What needs doing?", "", "Low, Medium or High", form.DateLayout, "", "type a tag and press enter"}
	for i := range m.inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 48
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.SetValue(values[i])
		m.inputs[i] = ti
	}
	m.inputs[fieldTitle].Focus()
	return m
}

func (m editorModel) Update(ctx context.Context, saver form.Saver, msg tea.KeyMsg) (editorModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.Cancel()
		m.result = editorCancelled
		return m, nil
	case "tab", "down":
		return m.setFocus((m.focus + 1) % fieldCount), nil
	case "shift+tab", "up":
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount), nil
	case "ctrl+s":
		return m.submit(ctx, saver), nil
	case "enter":
		if m.focus == fieldTag && strings.TrimSpace(m.inputs[fieldTag].Value()) != "" {
			m.form.AddTag(m.inputs[fieldTag].Value())
			m.inputs[fieldTag].SetValue("")
			return m, nil
		}
		return m.submit(ctx, saver), nil
	case "backspace":
		if m.focus == fieldTag && m.inputs[fieldTag].Value() == "" {
			if tags := m.form.Tags(); len(tags) > 0 {
				m.form.RemoveTag(tags[len(tags)-1])
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.errs != nil {
		m = m.revalidate()
	}
	return m, cmd
}

// revalidate refreshes the shown errors once a failed save has shown them,
// so fixed fields clear while typing.
func (m editorModel) revalidate() editorModel {
	m.sync()
	m.errs = nil
	var verr *form.ValidationError
	if err := m.form.Validate(); errors.As(err, &verr) {
		m.errs = verr.Fields
	}
	return m
}

// sync copies the field text into the form.
func (m editorModel) sync() {
	m.form.Title = m.inputs[fieldTitle].Value()
	m.form.Description = m.inputs[fieldDescription].Value()
	m.form.Priority = m.inputs[fieldPriority].Value()
	m.form.DueDate = m.inputs[fieldDue].Value()
	m.form.AssignedTo = m.inputs[fieldAssignee].Value()
}

func (m editorModel) setFocus(i int) editorModel {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
	return m
}

func (m editorModel) submit(ctx context.Context, saver form.Saver) editorModel {
	m.sync()
	if pending := m.inputs[fieldTag].Value(); strings.TrimSpace(pending) != "" {
		m.form.AddTag(pending)
		m.inputs[fieldTag].SetValue("")
	}
	task, err := m.form.Submit(ctx, saver)
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			m.errs = verr.Fields
		} else {
			m.errs = map[string]string{"form": err.Error()}
		}
		return m
	}
	m.errs = nil
	m.saved = task
	m.result = editorSaved
	return m
}

func (m editorModel) View() string {
	var b strings.Builder
	title := "New task"
	if orig, ok := m.form.Original(); ok {
		title = "Edit task " + orig.ID
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n\n")
	for i := range m.inputs {
		label := fieldLabels[i]
		if i == m.focus {
			label = "> " + label
		}
		b.WriteString(styles.LabelStyle.Render(label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if msg, ok := m.errs[fieldKeys[i]]; ok {
			b.WriteString(styles.LabelStyle.Render(""))
			b.WriteString(styles.ErrorStyle.Render(msg))
			b.WriteString("\n")
		}
	}
	b.WriteString(styles.LabelStyle.Render("Tags"))
	if tags := m.form.Tags(); len(tags) > 0 {
		b.WriteString(styles.TagStyle.Render("#" + strings.Join(tags, " #")))
	} else {
		b.WriteString(styles.SubtleStyle.Render("none"))
	}
	b.WriteString("\n")
	if msg, ok := m.errs["form"]; ok {
		b.WriteString("\n")
		b.WriteString(styles.ErrorStyle.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.SubtleStyle.Render("tab/shift+tab move • enter save (adds tag on the tag field) • backspace on empty tag removes last • esc cancel"))
	return b.String()
}
