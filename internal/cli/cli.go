// Package cli implements the taskboard command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskboard/internal/config"
	"github.com/amirbrooks/taskboard/internal/logging"
	"github.com/amirbrooks/taskboard/internal/storage"
	"github.com/amirbrooks/taskboard/internal/store"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	Config  string
	Root    string
	Backend string
	JSON    bool
	Plain   bool
	Verbose bool
}

// app is the state shared by one invocation's commands.
type app struct {
	gf     GlobalFlags
	stdout io.Writer
	stderr io.Writer

	cfg    *config.Config
	logger *log.Logger
	st     *store.Store
}

// usageError marks errors that should exit with ExitUsage.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if a.st != nil {
		if cerr := a.st.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(stderr, "taskboard:", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var uerr *usageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &uerr):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrConflict):
		return ExitConflict
	case errors.Is(err, store.ErrInvalid), errors.Is(err, config.ErrInvalid), errors.Is(err, storage.ErrUnknownBackend):
		return ExitUsage
	case strings.HasPrefix(err.Error(), "unknown command"):
		return ExitUsage
	}
	return ExitInternal
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "Single-user kanban board for the terminal",
		Long:          "taskboard keeps a three-column kanban board (To Do, In Progress, Done) in a local key-value store.\nRun without a command to open the interactive board.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.gf.Config, "config", "", "Config file (default: <root>/config.toml)")
	pf.StringVar(&a.gf.Root, "root", "", "Data root (default: ~/.taskboard or TASKBOARD_ROOT)")
	pf.StringVar(&a.gf.Backend, "backend", "", "Storage backend: file, sqlite, redis or memory")
	pf.BoolVar(&a.gf.JSON, "json", false, "JSON output")
	pf.BoolVar(&a.gf.Plain, "plain", false, "TSV output")
	pf.BoolVar(&a.gf.Verbose, "verbose", false, "Debug logging")

	root.AddCommand(
		newBoardCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newShowCmd(a),
		newRemoveCmd(a),
		newMoveCmd(a),
		newTagsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
		newTUICmd(a),
	)
	return root
}

// exactArgs is cobra.ExactArgs with a usage exit code.
func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("usage: taskboard %s", usage)
		}
		return nil
	}
}

// config loads settings once per invocation and applies flag overrides.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	if a.gf.JSON && a.gf.Plain {
		return nil, usagef("--json and --plain are mutually exclusive")
	}
	cfg, err := config.Load(config.LoadOptions{Root: a.gf.Root, ConfigPath: a.gf.Config})
	if err != nil {
		return nil, err
	}
	if a.gf.Backend != "" {
		cfg.Storage.Backend = a.gf.Backend
	}
	if a.gf.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg = cfg
	a.logger = logging.New(a.stderr, logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	a.logger.Debug("config loaded", "root", cfg.Root, "file", cfg.File, "backend", cfg.Storage.Backend)
	return cfg, nil
}

// store opens the configured storage and task store on first use.
func (a *app) store(ctx context.Context) (*store.Store, error) {
	if a.st != nil {
		return a.st, nil
	}
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	opts := cfg.StorageOptions()
	backend, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, backend, store.Options{Key: cfg.Storage.Key, Seed: cfg.Seed, Logger: a.logger})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	a.logger.Debug("store opened", "backend", opts.Backend, "path", opts.Path, "key", st.Key())
	a.st = st
	return st, nil
}
