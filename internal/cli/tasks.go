package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/form"
	"github.com/amirbrooks/taskboard/internal/store"
)

func newListCmd(a *app) *cobra.Command {
	var (
		search string
		tags   []string
		column string
	)
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks in stored order",
		Args:    exactArgs(0, "ls [--search text] [--tag name]... [--column name]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tasks, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			tasks = board.Filter(tasks, search, tags)
			if column != "" {
				c, err := store.ParseColumn(column)
				if err != nil {
					return err
				}
				out := tasks[:0]
				for _, t := range tasks {
					if t.Column == c {
						out = append(out, t)
					}
				}
				tasks = out
			}
			return a.printTasks(tasks)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title substring")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Require tag (repeatable)")
	cmd.Flags().StringVar(&column, "column", "", "Only this column: todo, doing or done")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var (
		desc     string
		priority string
		due      string
		assignee string
		tags     []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to To Do",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usagef("usage: taskboard add <title> [--desc text] [--priority low|medium|high] [--due YYYY-MM-DD] [--assignee name] [--tag name]...")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			f := form.New(nil)
			f.Title = strings.Join(args, " ")
			f.Description = desc
			if priority != "" {
				f.Priority = priority
			}
			f.DueDate = due
			f.AssignedTo = assignee
			for _, t := range tags {
				f.AddTag(t)
			}
			task, err := f.Submit(cmd.Context(), st)
			if err != nil {
				return err
			}
			return a.printTask(task, "Added")
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority: low, medium or high (default medium)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "Assignee")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tag (repeatable)")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var (
		title    string
		desc     string
		priority string
		due      string
		assignee string
		tags     []string
		untags   []string
		clearDue bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  exactArgs(1, "edit <id> [--title text] [--desc text] [--priority p] [--due YYYY-MM-DD|--clear-due] [--assignee name] [--tag name]... [--untag name]..."),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearDue && cmd.Flags().Changed("due") {
				return usagef("--due and --clear-due are mutually exclusive")
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.Resolve(cmd.Context(), args[0])
			if err != nil {
				return idError(args[0], err)
			}
			f := form.New(&task)
			flags := cmd.Flags()
			if flags.Changed("title") {
				f.Title = title
			}
			if flags.Changed("desc") {
				f.Description = desc
			}
			if flags.Changed("priority") {
				f.Priority = priority
			}
			if flags.Changed("due") {
				f.DueDate = due
			}
			if clearDue {
				f.DueDate = ""
			}
			if flags.Changed("assignee") {
				f.AssignedTo = assignee
			}
			for _, t := range tags {
				f.AddTag(t)
			}
			for _, t := range untags {
				f.RemoveTag(strings.TrimSpace(t))
			}
			updated, err := f.Submit(cmd.Context(), st)
			if err != nil {
				return err
			}
			return a.printTask(updated, "Updated")
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&desc, "desc", "", "New description")
	cmd.Flags().StringVar(&priority, "priority", "", "New priority")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "Remove the due date")
	cmd.Flags().StringVar(&assignee, "assignee", "", "New assignee (empty clears)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Add tag (repeatable)")
	cmd.Flags().StringArrayVar(&untags, "untag", nil, "Remove tag (repeatable)")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  exactArgs(1, "show <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.Resolve(cmd.Context(), args[0])
			if err != nil {
				return idError(args[0], err)
			}
			return a.printTask(task, "")
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    exactArgs(1, "rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			task, err := st.Resolve(cmd.Context(), args[0])
			if err != nil {
				return idError(args[0], err)
			}
			if err := st.Remove(cmd.Context(), task.ID); err != nil {
				return err
			}
			return a.printTask(task, "Deleted")
		},
	}
}

// idError names the id in not-found and ambiguous-prefix errors.
func idError(id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("task %q: %w", id, err)
	}
	return err
}
