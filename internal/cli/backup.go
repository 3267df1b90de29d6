package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskboard/internal/backup"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every task to a backup file",
		Long:  "Write every task to a backup file. Without --out the file lands in <root>/exports with a timestamped name. --out - writes to stdout.",
		Args:  exactArgs(0, "export [--format json|yaml] [--out path|-]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, out)
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if out == "-" {
				return backup.Encode(a.stdout, tasks, f)
			}
			var buf bytes.Buffer
			if err := backup.Encode(&buf, tasks, f); err != nil {
				return err
			}
			var path string
			if out == "" {
				path, err = writeExportFile(filepath.Join(a.cfg.Root, "exports"), "tasks", string(f), buf.Bytes())
			} else {
				path = out
				err = writeFileAtomic(path, buf.Bytes())
			}
			if err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"path": path, "count": len(tasks)})
			}
			fmt.Fprintf(a.stdout, "Exported %d tasks to: %s\n", len(tasks), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Backup format: json or yaml (default from --out extension, else json)")
	cmd.Flags().StringVar(&out, "out", "", "Output file, or - for stdout")
	return cmd
}

func exportFormat(format, out string) (backup.Format, error) {
	if format != "" {
		return backup.ParseFormat(format)
	}
	if out == "" || out == "-" {
		return backup.FormatJSON, nil
	}
	return backup.FormatForPath(out), nil
}

func newImportCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace every task with the contents of a backup file",
		Args:  exactArgs(1, "import <file> [--format json|yaml]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f := backup.FormatForPath(path)
			if format != "" {
				var err error
				if f, err = backup.ParseFormat(format); err != nil {
					return err
				}
			}
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			tasks, err := backup.Decode(file, f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if err := st.Replace(cmd.Context(), tasks); err != nil {
				return err
			}
			if a.gf.JSON {
				return writeJSON(a.stdout, map[string]any{"imported": len(tasks)})
			}
			fmt.Fprintf(a.stdout, "Imported %d tasks\n", len(tasks))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "Backup format: json or yaml (default from extension)")
	return cmd
}
