// Package backup writes the task list to JSON or YAML files and reads it
// back after checking it against an embedded JSON schema.
package backup

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/taskboard/internal/store"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	schemaURL = "https://github.com/amirbrooks/taskboard/backup.schema.json"
	version   = 1
)

//go:embed schema.json
var schemaSource string

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
	timeNow     = func() time.Time { return time.Now().UTC() }
)

// Document is the backup file layout.
type Document struct {
	Version    int          `json:"version" yaml:"version"`
	ExportedAt time.Time    `json:"exportedAt" yaml:"exportedAt"`
	Tasks      []store.Task `json:"tasks" yaml:"tasks"`
}

type entry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	DueDate     *string  `json:"dueDate"`
	AssignedTo  string   `json:"assignedTo"`
	Column      string   `json:"column"`
}

// SchemaError points at the first part of an import that breaks the schema.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return "backup: " + e.Message
	}
	return fmt.Sprintf("backup: %s: %s", e.Path, e.Message)
}

func (e *SchemaError) Is(target error) bool {
	return target == store.ErrInvalid
}

// ParseFormat accepts json, yaml or yml. Empty input means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown backup format %q", store.ErrInvalid, s)
}

// FormatForPath guesses the format from a file extension, falling back to JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Encode writes tasks as a backup document.
func Encode(w io.Writer, tasks []store.Task, format Format) error {
	doc := Document{Version: version, ExportedAt: timeNow(), Tasks: tasks}
	if doc.Tasks == nil {
		doc.Tasks = []store.Task{}
	}
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("%w: unknown backup format %q", store.ErrInvalid, format)
}

// Decode reads a backup document, validates it and returns its tasks.
// Tasks keep their ids; tasks without one get an id when stored.
func Decode(r io.Reader, format Format) ([]store.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse yaml: %v", store.ErrInvalid, err)
		}
		// Validation and decoding both work on the JSON form.
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("%w: convert yaml: %v", store.ErrInvalid, err)
		}
		raw = nil
		fallthrough
	case FormatJSON, "":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: parse json: %v", store.ErrInvalid, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown backup format %q", store.ErrInvalid, format)
	}

	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc struct {
		Tasks []entry `json:"tasks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode tasks: %v", store.ErrInvalid, err)
	}
	out := make([]store.Task, 0, len(doc.Tasks))
	for i, e := range doc.Tasks {
		t := store.Task{
			ID:          strings.TrimSpace(e.ID),
			Title:       e.Title,
			Description: e.Description,
			Priority:    store.Priority(e.Priority),
			Tags:        e.Tags,
			AssignedTo:  e.AssignedTo,
			Column:      store.Column(e.Column),
		}
		if e.DueDate != nil && strings.TrimSpace(*e.DueDate) != "" {
			d, err := store.ParseDueDate(*e.DueDate)
			if err != nil {
				return nil, &SchemaError{Path: fmt.Sprintf("tasks[%d].dueDate", i), Message: err.Error()}
			}
			t.DueDate = &d
		}
		out = append(out, t)
	}
	return out, nil
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(schemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

func validate(v any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	if err := s.Validate(v); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return &SchemaError{Message: err.Error()}
		}
		leaf := firstLeaf(ve)
		return &SchemaError{Path: pointerToPath(leaf.InstanceLocation), Message: leaf.Message}
	}
	return nil
}

func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

// pointerToPath turns "/tasks/0/title" into "tasks[0].title".
func pointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return ""
	}
	var b strings.Builder
	for _, part := range strings.Split(ptr, "/") {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
