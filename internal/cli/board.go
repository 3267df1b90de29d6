package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/render"
	"github.com/amirbrooks/taskboard/internal/store"
)

type columnPayload struct {
	Column store.Column `json:"column"`
	Key    string       `json:"key"`
	Count  int          `json:"count"`
	Tasks  []store.Task `json:"tasks"`
}

type boardPayload struct {
	Search  string          `json:"search,omitempty"`
	Tags    []string        `json:"tags,omitempty"`
	Columns []columnPayload `json:"columns"`
}

func newBoardCmd(a *app) *cobra.Command {
	var (
		search string
		tags   []string
		format string
		ascii  bool
	)
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the board grouped by column",
		Args:  exactArgs(0, "board [--search text] [--tag name]... [--format text|telegram]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != render.FormatText && format != render.FormatTelegram {
				return usagef("unknown format %q (want text or telegram)", format)
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			b := board.New(st)
			b.SetSearch(search)
			b.SetTags(tags)
			g, err := b.Grouped(cmd.Context())
			if err != nil {
				return err
			}
			if a.gf.JSON {
				payload := boardPayload{Search: b.Search(), Tags: b.Tags()}
				for _, c := range store.Columns {
					payload.Columns = append(payload.Columns, columnPayload{Column: c, Key: c.Key(), Count: len(g[c]), Tasks: g[c]})
				}
				return writeJSON(a.stdout, payload)
			}
			if a.gf.Plain {
				return a.printTasks(g.Flatten())
			}
			title := "Board"
			if b.Filtering() {
				title = fmt.Sprintf("Board (%d shown)", g.Len())
			}
			fmt.Fprint(a.stdout, render.Board(g, render.Options{Title: title, ASCII: ascii, Format: format}))
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title substring")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Require tag (repeatable)")
	cmd.Flags().StringVar(&format, "format", render.FormatText, "Output format: text or telegram")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "ASCII-only truncation marks")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var index int
	cmd := &cobra.Command{
		Use:   "mv <id> <column>",
		Short: "Move a task to a column and position",
		Long:  "Move a task to a column (todo, doing, done). --index sets its position in that column, counted from 0; the default puts it last.",
		Args:  exactArgs(2, "mv <id> <todo|doing|done> [--index n]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := store.ParseColumn(args[1])
			if err != nil {
				return err
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.Resolve(cmd.Context(), args[0])
			if err != nil {
				return idError(args[0], err)
			}
			b := board.New(st)
			g, err := b.Grouped(cmd.Context())
			if err != nil {
				return err
			}
			from := -1
			for i, t := range g[task.Column] {
				if t.ID == task.ID {
					from = i
					break
				}
			}
			if from < 0 {
				return fmt.Errorf("task %q: %w", args[0], store.ErrNotFound)
			}
			to := index
			if !cmd.Flags().Changed("index") {
				to = len(g[dest])
			}
			if to < 0 {
				return usagef("--index must be >= 0")
			}
			moved, err := b.Reorder(cmd.Context(), task.Column, dest, from, to)
			if err != nil {
				return err
			}
			return a.printTask(moved, "Moved")
		},
	}
	cmd.Flags().IntVar(&index, "index", 0, "Position in the destination column (0 is first)")
	return cmd
}

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag in use",
		Args:  exactArgs(0, "tags"),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tags, err := board.New(st).AllTags(cmd.Context())
			if err != nil {
				return err
			}
			if a.gf.JSON {
				if tags == nil {
					tags = []string{}
				}
				return writeJSON(a.stdout, map[string][]string{"tags": tags})
			}
			for _, t := range tags {
				fmt.Fprintln(a.stdout, t)
			}
			return nil
		},
	}
}
