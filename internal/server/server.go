// Package server exposes the board over a local JSON API with a
// server-sent event stream of changes.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/store"
)

// Store is the task store surface the API needs.
type Store interface {
	board.TaskStore
	Get(ctx context.Context, id string) (store.Task, error)
	Add(ctx context.Context, in store.NewTask) (store.Task, error)
	Update(ctx context.Context, task store.Task) error
	Remove(ctx context.Context, id string) error
	Subscribe(fn func()) func()
}

// New returns an echo instance with every route registered.
// The returned cancel func detaches the change stream from the store.
func New(st Store, logger *log.Logger) (*echo.Echo, func()) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(logger))
	cancel := Register(e, st, logger)
	return e, cancel
}

// Register wires up the API routes on e.
func Register(e *echo.Echo, st Store, logger *log.Logger) func() {
	broker := newUpdateBroker()
	cancel := st.Subscribe(broker.notify)

	e.GET("/healthz", healthz(st))
	e.GET("/api/board", getBoard(st))
	e.GET("/api/tags", getTags(st))
	e.GET("/api/tasks", listTasks(st))
	e.GET("/api/tasks/:id", getTask(st))
	e.POST("/api/tasks", createTask(st))
	e.PUT("/api/tasks/:id", updateTask(st))
	e.DELETE("/api/tasks/:id", deleteTask(st))
	e.POST("/api/reorder", reorder(st))
	e.GET("/api/stream", streamTasks(st, broker, logger))
	return cancel
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger *log.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}

func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			res := c.Response()
			entry := logger.WithFields(log.Fields{
				"method":     c.Request().Method,
				"path":       c.Path(),
				"status":     res.Status,
				"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
				"request_id": res.Header().Get(echo.HeaderXRequestID),
			})
			switch {
			case res.Status >= http.StatusInternalServerError:
				entry.Error("request failed")
			case c.Path() == "/healthz":
				entry.Debug("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
