package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amirbrooks/taskboard/internal/board"
	"github.com/amirbrooks/taskboard/internal/form"
	"github.com/amirbrooks/taskboard/internal/store"
)

type tasksResponse struct {
	Tasks []store.Task `json:"tasks"`
}

type columnView struct {
	Name  store.Column `json:"name"`
	Tasks []store.Task `json:"tasks"`
}

type boardResponse struct {
	Search  string       `json:"search"`
	Tags    []string     `json:"tags"`
	Columns []columnView `json:"columns"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// taskRequest is the body of create and update calls. dueDate accepts
// YYYY-MM-DD or RFC 3339; empty clears it.
type taskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"dueDate"`
	AssignedTo  string   `json:"assignedTo"`
	Column      string   `json:"column"`
}

type reorderRequest struct {
	SourceColumn string   `json:"sourceColumn"`
	DestColumn   string   `json:"destColumn"`
	SourceIndex  int      `json:"sourceIndex"`
	DestIndex    int      `json:"destIndex"`
	Search       string   `json:"search"`
	Tags         []string `json:"tags"`
}

func healthz(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, err := st.List(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func getBoard(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		b := board.New(st)
		b.SetSearch(c.QueryParam("search"))
		b.SetTags(c.QueryParams()["tag"])
		g, err := b.Grouped(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		resp := boardResponse{Search: b.Search(), Tags: b.Tags(), Columns: make([]columnView, 0, len(store.Columns))}
		for _, col := range store.Columns {
			resp.Columns = append(resp.Columns, columnView{Name: col, Tasks: g[col]})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func getTags(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		tags, err := board.New(st).AllTags(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, map[string][]string{"tags": tags})
	}
}

func listTasks(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks, err := st.List(c.Request().Context())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, tasksResponse{Tasks: tasks})
	}
}

func getTask(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		task, err := st.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

func createTask(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req taskRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		}
		f := form.New(nil)
		req.fill(f)
		task, err := f.Submit(c.Request().Context(), st)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusCreated, task)
	}
}

func updateTask(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		var req taskRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		}
		task, err := st.Get(ctx, c.Param("id"))
		if err != nil {
			return writeError(c, err)
		}
		if strings.TrimSpace(req.Column) != "" {
			col, err := store.ParseColumn(req.Column)
			if err != nil {
				return writeError(c, err)
			}
			task.Column = col
		}
		f := form.New(&task)
		req.fill(f)
		saved, err := f.Submit(ctx, st)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, saved)
	}
}

func deleteTask(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := st.Remove(c.Request().Context(), c.Param("id")); err != nil {
			return writeError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}

func reorder(st Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req reorderRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		}
		src, err := store.ParseColumn(req.SourceColumn)
		if err != nil {
			return writeError(c, err)
		}
		dst, err := store.ParseColumn(req.DestColumn)
		if err != nil {
			return writeError(c, err)
		}
		b := board.New(st)
		b.SetSearch(req.Search)
		b.SetTags(req.Tags)
		task, err := b.Reorder(c.Request().Context(), src, dst, req.SourceIndex, req.DestIndex)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, task)
	}
}

// fill replaces every form field with the request's values.
func (r taskRequest) fill(f *form.Form) {
	f.Title = r.Title
	f.Description = r.Description
	f.Priority = r.Priority
	f.DueDate = r.DueDate
	f.AssignedTo = r.AssignedTo
	for _, tag := range f.Tags() {
		f.RemoveTag(tag)
	}
	for _, tag := range r.Tags {
		f.AddTag(tag)
	}
}

func writeError(c echo.Context, err error) error {
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: verr.Fields})
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, store.ErrInvalid):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}
