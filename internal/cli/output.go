package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amirbrooks/taskboard/internal/render"
	"github.com/amirbrooks/taskboard/internal/store"
)

var timeNow = time.Now

type tasksPayload struct {
	Tasks []store.Task `json:"tasks"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) printTasks(tasks []store.Task) error {
	if tasks == nil {
		tasks = []store.Task{}
	}
	if a.gf.JSON {
		return writeJSON(a.stdout, tasksPayload{Tasks: tasks})
	}
	if a.gf.Plain {
		for _, t := range tasks {
			fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Column.Key(), t.Priority, dueDate(t.DueDate), strings.Join(t.Tags, ","), render.CleanTitle(t.Title))
		}
		return nil
	}
	if len(tasks) == 0 {
		fmt.Fprintln(a.stdout, "No tasks.")
		return nil
	}
	w := tabwriter.NewWriter(a.stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCOLUMN\tPRI\tDUE\tTITLE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Column, t.Priority.Abbrev(), render.DueShort(t.DueDate), render.Truncate(render.CleanTitle(t.Title), 60, false))
	}
	return w.Flush()
}

// printTask prints a single task after a write or for show.
func (a *app) printTask(t store.Task, verb string) error {
	switch {
	case a.gf.JSON:
		return writeJSON(a.stdout, t)
	case a.gf.Plain:
		fmt.Fprintln(a.stdout, t.ID)
		return nil
	case verb == "":
		fmt.Fprint(a.stdout, render.Task(t))
		return nil
	}
	fmt.Fprintf(a.stdout, "%s %s: %s [%s]\n", verb, t.ID, render.CleanTitle(t.Title), t.Column)
	return nil
}

func dueDate(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return due.Format("2006-01-02")
}

// writeExportFile writes data under dir with a timestamped name that does
// not overwrite earlier exports.
func writeExportFile(dir, base, ext string, data []byte) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", errors.New("export directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	ts := timeNow().UTC().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", base, ts, ext))
	for i := 1; ; i++ {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-%s-%d.%s", base, ts, i, ext))
	}
	return path, writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), fmt.Sprintf(".tmp-%d", timeNow().UTC().UnixNano()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
