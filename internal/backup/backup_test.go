package backup

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amirbrooks/taskboard/internal/store"
)

func sampleTasks() []store.Task {
	due := time.Date(2026, 11, 1, 9, 30, 0, 0, time.UTC)
	return []store.Task{
		{ID: "1", Title: "Plan", Priority: store.PriorityHigh, Tags: []string{"a"}, Column: store.ColumnTodo},
		{ID: "2", Title: "Build", Description: "the thing", Priority: store.PriorityLow, Tags: []string{}, DueDate: &due, AssignedTo: "kim", Column: store.ColumnInProgress},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, sampleTasks(), format); err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := Decode(&buf, format)
			if err != nil {
				t.Fatalf("decode: %v\n%s", err, buf.String())
			}
			want := sampleTasks()
			if len(got) != len(want) {
				t.Fatalf("expected %d tasks, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i].ID != want[i].ID || got[i].Title != want[i].Title || got[i].Column != want[i].Column || got[i].Priority != want[i].Priority {
					t.Fatalf("task %d: expected %+v, got %+v", i, want[i], got[i])
				}
			}
			if got[1].DueDate == nil || !got[1].DueDate.Equal(*want[1].DueDate) {
				t.Fatalf("expected due date %v, got %v", want[1].DueDate, got[1].DueDate)
			}
			if got[1].AssignedTo != "kim" || got[1].Description != "the thing" {
				t.Fatalf("expected optional fields to survive, got %+v", got[1])
			}
		})
	}
}

func TestDecodeRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"missing tasks":  `{"version": 1}`,
		"bad column":     `{"tasks": [{"title": "x", "column": "Backlog"}]}`,
		"empty title":    `{"tasks": [{"title": "", "column": "Done"}]}`,
		"tags not array": `{"tasks": [{"title": "x", "column": "Done", "tags": "a,b"}]}`,
		"bad due date":   `{"tasks": [{"title": "x", "column": "Done", "dueDate": "soon"}]}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc), FormatJSON)
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("expected SchemaError, got %v", err)
			}
			if !errors.Is(err, store.ErrInvalid) {
				t.Fatal("expected SchemaError to match ErrInvalid")
			}
		})
	}
}

func TestDecodeReportsPath(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"tasks": [{"title": "ok", "column": "Done"}, {"title": "x", "column": "Later"}]}`), FormatJSON)
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !strings.HasPrefix(se.Path, "tasks[1]") {
		t.Fatalf("expected path under tasks[1], got %q", se.Path)
	}
}

func TestDecodeYAMLPlainDate(t *testing.T) {
	doc := `
tasks:
  - title: Pay rent
    column: To Do
    dueDate: 2026-12-01
    tags: [home]
`
	got, err := Decode(strings.NewReader(doc), FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].DueDate == nil || got[0].DueDate.Format("2006-01-02") != "2026-12-01" {
		t.Fatalf("unexpected tasks %+v", got)
	}
	if got[0].ID != "" {
		t.Fatalf("expected empty id to be left for the store, got %q", got[0].ID)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode(strings.NewReader("{"), FormatJSON); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if _, err := Decode(strings.NewReader("tasks: [unclosed"), FormatYAML); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestFormats(t *testing.T) {
	if f, _ := ParseFormat("YML"); f != FormatYAML {
		t.Fatalf("expected yaml, got %q", f)
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if FormatForPath("/tmp/b.yaml") != FormatYAML || FormatForPath("b.json") != FormatJSON {
		t.Fatal("unexpected format for path")
	}
	if got := pointerToPath("/tasks/3/column"); got != "tasks[3].column" {
		t.Fatalf("got %q", got)
	}
}
