package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/taskboard/internal/storage"
	"github.com/amirbrooks/taskboard/internal/store"
)

func newTestServer(t *testing.T) (*echo.Echo, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), storage.NewMemory(), store.Options{Seed: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	logger := log.New()
	logger.SetOutput(io.Discard)
	e, cancel := New(st, logger)
	t.Cleanup(cancel)
	return e, st
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthzAndRequestID(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Fatal("expected a request id header")
	}
}

func TestBoardEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/api/board", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[boardResponse](t, rec)
	if len(resp.Columns) != 3 || resp.Columns[0].Name != store.ColumnTodo || resp.Columns[2].Name != store.ColumnDone {
		t.Fatalf("unexpected columns %+v", resp.Columns)
	}
	for _, col := range resp.Columns {
		if len(col.Tasks) != 1 {
			t.Fatalf("expected one seed task in %q, got %d", col.Name, len(col.Tasks))
		}
	}

	rec = do(t, e, http.MethodGet, "/api/board?tag=DevOps", "")
	resp = decode[boardResponse](t, rec)
	if len(resp.Columns[0].Tasks)+len(resp.Columns[1].Tasks) != 0 || len(resp.Columns[2].Tasks) != 1 {
		t.Fatalf("expected only the Done task, got %+v", resp.Columns)
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	e, st := newTestServer(t)
	ctx := context.Background()

	rec := do(t, e, http.MethodPost, "/api/tasks", `{"title":"Write tests","tags":["go"," go ","ci"],"dueDate":"2026-12-24"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[store.Task](t, rec)
	if created.Column != store.ColumnTodo || created.Priority != store.PriorityMedium {
		t.Fatalf("unexpected created task %+v", created)
	}
	if strings.Join(created.Tags, ",") != "go,ci" {
		t.Fatalf("expected normalized tags, got %v", created.Tags)
	}

	rec = do(t, e, http.MethodPut, "/api/tasks/"+created.ID, `{"title":"Write more tests","priority":"high","column":"done","tags":["go"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got, _ := st.Get(ctx, created.ID)
	if got.Title != "Write more tests" || got.Column != store.ColumnDone || got.Priority != store.PriorityHigh || got.DueDate != nil {
		t.Fatalf("unexpected stored task %+v", got)
	}

	rec = do(t, e, http.MethodDelete, "/api/tasks/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodDelete, "/api/tasks/"+created.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for unknown id, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodGet, "/api/tasks/"+created.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	tasks, _ := st.List(ctx)
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
}

func TestCreateValidation(t *testing.T) {
	e, st := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/api/tasks", `{"title":"  ","priority":"urgent"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decode[errorResponse](t, rec)
	if resp.Fields["title"] == "" || resp.Fields["priority"] == "" {
		t.Fatalf("expected title and priority problems, got %+v", resp)
	}
	tasks, _ := st.List(context.Background())
	if len(tasks) != 3 {
		t.Fatalf("expected nothing stored, got %d tasks", len(tasks))
	}
}

func TestReorderEndpoint(t *testing.T) {
	e, st := newTestServer(t)
	rec := do(t, e, http.MethodPost, "/api/reorder", `{"sourceColumn":"To Do","destColumn":"done","sourceIndex":0,"destIndex":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	moved := decode[store.Task](t, rec)
	if moved.ID != "1" || moved.Column != store.ColumnDone {
		t.Fatalf("unexpected moved task %+v", moved)
	}
	tasks, _ := st.List(context.Background())
	if tasks[0].ID != "2" || tasks[1].ID != "1" || tasks[2].ID != "3" {
		t.Fatalf("expected task 1 placed before task 3, got %v", tasks)
	}

	rec = do(t, e, http.MethodPost, "/api/reorder", `{"sourceColumn":"To Do","destColumn":"Later","sourceIndex":0,"destIndex":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown column, got %d", rec.Code)
	}
	rec = do(t, e, http.MethodPost, "/api/reorder", `{"sourceColumn":"To Do","destColumn":"Done","sourceIndex":5,"destIndex":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad index, got %d", rec.Code)
	}
}

func TestTagsEndpoint(t *testing.T) {
	e, _ := newTestServer(t)
	rec := do(t, e, http.MethodGet, "/api/tags", "")
	resp := decode[map[string][]string](t, rec)
	if strings.Join(resp["tags"], ",") != "UI,Design,Frontend,DevOps" {
		t.Fatalf("unexpected tags %v", resp["tags"])
	}
}

func TestStreamSendsSnapshotAndUpdates(t *testing.T) {
	e, st := newTestServer(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	first := readFrame(t, r)
	if len(first.Tasks) != 3 {
		t.Fatalf("expected 3 tasks in first frame, got %d", len(first.Tasks))
	}
	if _, err := st.Add(context.Background(), store.NewTask{Title: "Live"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	second := readFrame(t, r)
	if len(second.Tasks) != 4 {
		t.Fatalf("expected 4 tasks after add, got %d", len(second.Tasks))
	}
}

func readFrame(t *testing.T, r *bufio.Reader) tasksResponse {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var resp tasksResponse
		if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &resp); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return resp
	}
}

func TestBrokerNotifyDoesNotBlock(t *testing.T) {
	b := newUpdateBroker()
	ch := b.subscribe()
	b.notify()
	b.notify()
	if len(ch) != 1 {
		t.Fatalf("expected one pending signal, got %d", len(ch))
	}
	b.unsubscribe(ch)
	if b.count() != 0 {
		t.Fatalf("expected no subscribers, got %d", b.count())
	}
}
