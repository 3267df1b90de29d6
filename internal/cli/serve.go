package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/amirbrooks/taskboard/internal/logging"
	"github.com/amirbrooks/taskboard/internal/server"
	"github.com/amirbrooks/taskboard/internal/tui"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Args:  exactArgs(0, "serve [--addr host:port]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			logger := newServerLogger(a)
			e, stop := server.New(st, logger)
			defer stop()
			return server.Run(cmd.Context(), e, addr, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

// newServerLogger builds the request logger from the same level and format
// settings as the command logger.
func newServerLogger(a *app) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(a.stderr)
	level, err := logrus.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if a.cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive board",
		Args:  exactArgs(0, "tui"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

// runTUI logs to <root>/tui.log with --verbose; the terminal belongs to the
// board while it runs.
func (a *app) runTUI(ctx context.Context) error {
	st, err := a.store(ctx)
	if err != nil {
		return err
	}
	logger := logging.Discard()
	if a.gf.Verbose {
		if err := os.MkdirAll(a.cfg.Root, 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(a.cfg.Root, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = logging.New(f, logging.Options{Level: "debug", Format: a.cfg.Log.Format, ReportTimestamp: true})
	}
	return tui.Run(ctx, st, logger, a.cfg.User)
}
