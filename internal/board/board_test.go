package board

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amirbrooks/taskboard/internal/storage"
	"github.com/amirbrooks/taskboard/internal/store"
)

func task(id, title string, col store.Column, tags ...string) store.Task {
	if tags == nil {
		tags = []string{}
	}
	return store.Task{ID: id, Title: title, Priority: store.PriorityMedium, Tags: tags, Column: col}
}

func sample() []store.Task {
	return []store.Task{
		task("a", "Write report", store.ColumnTodo, "work", "urgent"),
		task("b", "Buy milk", store.ColumnTodo, "home"),
		task("c", "Review report", store.ColumnInProgress, "work"),
		task("d", "Fix bike", store.ColumnDone, "home", "urgent"),
		task("e", "Report taxes", store.ColumnTodo, "home", "urgent"),
	}
}

func newBoard(t *testing.T, tasks []store.Task) (*Board, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, storage.NewMemory(), store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Replace(ctx, tasks); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return New(st), st
}

func idsOf(tasks []store.Task) string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return strings.Join(out, ",")
}

func TestGroupPartitionsByColumn(t *testing.T) {
	tasks := sample()
	g := Group(tasks, "", nil)
	if len(g) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(g))
	}
	if g.Len() != len(tasks) {
		t.Fatalf("expected %d tasks across columns, got %d", len(tasks), g.Len())
	}
	if got := idsOf(g[store.ColumnTodo]); got != "a,b,e" {
		t.Fatalf("expected To Do a,b,e in input order, got %s", got)
	}
	for _, c := range store.Columns {
		for _, tk := range g[c] {
			if tk.Column != c {
				t.Fatalf("task %s in %q has column %q", tk.ID, c, tk.Column)
			}
		}
	}
	counts := g.Counts()
	if counts[store.ColumnTodo] != 3 || counts[store.ColumnInProgress] != 1 || counts[store.ColumnDone] != 1 {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestGroupAlwaysHasEveryColumn(t *testing.T) {
	g := Group(nil, "", nil)
	for _, c := range store.Columns {
		list, ok := g[c]
		if !ok || list == nil || len(list) != 0 {
			t.Fatalf("expected empty non-nil list for %q, got %v (present=%v)", c, list, ok)
		}
	}
}

func TestSearchIsCaseInsensitiveSubset(t *testing.T) {
	tasks := sample()
	got := Filter(tasks, "REPORT", nil)
	if idsOf(got) != "a,c,e" {
		t.Fatalf("expected a,c,e, got %s", idsOf(got))
	}
	for _, tk := range got {
		if !strings.Contains(strings.ToLower(tk.Title), "report") {
			t.Fatalf("task %q does not match search", tk.Title)
		}
	}
	if len(Filter(tasks, "", nil)) != len(tasks) {
		t.Fatal("empty search should keep every task")
	}
}

func TestTagFilterRequiresEveryTag(t *testing.T) {
	tasks := sample()
	got := Filter(tasks, "", []string{"home", "urgent", "home"})
	if idsOf(got) != "d,e" {
		t.Fatalf("expected d,e, got %s", idsOf(got))
	}
	for _, tk := range got {
		if !tk.HasTag("home") || !tk.HasTag("urgent") {
			t.Fatalf("task %s lacks a required tag: %v", tk.ID, tk.Tags)
		}
	}
	if len(Filter(tasks, "", []string{"Home"})) != 0 {
		t.Fatal("tag match should be exact")
	}
	both := Filter(tasks, "report", []string{"urgent"})
	if idsOf(both) != "a,e" {
		t.Fatalf("expected a,e for search and tag, got %s", idsOf(both))
	}
}

func TestAllTagsFirstSeenOrder(t *testing.T) {
	got := AllTags(sample())
	if strings.Join(got, ",") != "work,urgent,home" {
		t.Fatalf("unexpected tags %v", got)
	}
}

func TestMoveItemClamps(t *testing.T) {
	in := []string{"a", "b", "c"}
	if got := MoveItem(in, 0, 2); strings.Join(got, "") != "bca" {
		t.Fatalf("expected bca, got %v", got)
	}
	if got := MoveItem(in, 2, -5); strings.Join(got, "") != "cab" {
		t.Fatalf("expected cab, got %v", got)
	}
	if got := MoveItem(in, 0, 99); strings.Join(got, "") != "bca" {
		t.Fatalf("expected bca, got %v", got)
	}
	if strings.Join(in, "") != "abc" {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestTransferItem(t *testing.T) {
	src, dst := TransferItem([]string{"a", "b"}, []string{"x", "y"}, 1, 1)
	if strings.Join(src, "") != "a" || strings.Join(dst, "") != "xby" {
		t.Fatalf("unexpected result %v %v", src, dst)
	}
	_, dst = TransferItem([]string{"a"}, []string{"x"}, 0, 10)
	if strings.Join(dst, "") != "xa" {
		t.Fatalf("expected append when index past end, got %v", dst)
	}
}

func TestReorderSameColumnPersistsOrder(t *testing.T) {
	ctx := context.Background()
	b, st := newBoard(t, sample())

	moved, err := b.Reorder(ctx, store.ColumnTodo, store.ColumnTodo, 0, 2)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved.ID != "a" || moved.Column != store.ColumnTodo {
		t.Fatalf("unexpected moved task %+v", moved)
	}
	g, _ := b.Grouped(ctx)
	if got := idsOf(g[store.ColumnTodo]); got != "b,e,a" {
		t.Fatalf("expected b,e,a, got %s", got)
	}

	reloaded, _ := New(st).Grouped(ctx)
	if got := idsOf(reloaded[store.ColumnTodo]); got != "b,e,a" {
		t.Fatalf("expected order to survive reload, got %s", got)
	}
	if reloaded.Len() != 5 {
		t.Fatalf("expected membership to be unchanged, got %d tasks", reloaded.Len())
	}
}

func TestReorderAcrossColumns(t *testing.T) {
	ctx := context.Background()
	b, st := newBoard(t, sample())

	moved, err := b.Reorder(ctx, store.ColumnTodo, store.ColumnDone, 1, 0)
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved.ID != "b" || moved.Column != store.ColumnDone {
		t.Fatalf("unexpected moved task %+v", moved)
	}
	g, _ := b.Grouped(ctx)
	if len(g[store.ColumnTodo]) != 2 || len(g[store.ColumnDone]) != 2 {
		t.Fatalf("unexpected counts %v", g.Counts())
	}
	if got := idsOf(g[store.ColumnDone]); got != "b,d" {
		t.Fatalf("expected b,d in Done, got %s", got)
	}
	saved, _ := st.Get(ctx, "b")
	if saved.Column != store.ColumnDone {
		t.Fatalf("expected stored column Done, got %q", saved.Column)
	}
}

func TestReorderOnFilteredView(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t, sample())
	b.SetTags([]string{"urgent"})

	// visible To Do: a, e
	if _, err := b.Reorder(ctx, store.ColumnTodo, store.ColumnTodo, 1, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	g, _ := b.Grouped(ctx)
	if got := idsOf(g[store.ColumnTodo]); got != "e,a" {
		t.Fatalf("expected e,a in filtered view, got %s", got)
	}
	b.ClearFilter()
	g, _ = b.Grouped(ctx)
	if g.Len() != 5 {
		t.Fatalf("hidden tasks must survive a filtered move, got %d", g.Len())
	}
}

func TestReorderSameIndexStillWrites(t *testing.T) {
	ctx := context.Background()
	b, st := newBoard(t, sample())
	writes := 0
	cancel := st.Subscribe(func() { writes++ })
	defer cancel()

	if _, err := b.Reorder(ctx, store.ColumnInProgress, store.ColumnInProgress, 0, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if writes != 1 {
		t.Fatalf("expected one write, got %d", writes)
	}
}

func TestReorderRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	b, st := newBoard(t, sample())
	writes := 0
	cancel := st.Subscribe(func() { writes++ })
	defer cancel()

	if _, err := b.Reorder(ctx, store.ColumnDone, store.ColumnTodo, 3, 0); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for source index, got %v", err)
	}
	if _, err := b.Reorder(ctx, store.ColumnTodo, "Backlog", 0, 0); !errors.Is(err, store.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for destination column, got %v", err)
	}
	if writes != 0 {
		t.Fatalf("expected no writes, got %d", writes)
	}
}

func TestToggleTag(t *testing.T) {
	b := New(nil)
	b.ToggleTag("work")
	b.ToggleTag("home")
	b.ToggleTag("work")
	if got := strings.Join(b.Tags(), ","); got != "home" {
		t.Fatalf("expected home, got %s", got)
	}
	if !b.Filtering() {
		t.Fatal("expected filter to be active")
	}
	b.ClearFilter()
	if b.Filtering() {
		t.Fatal("expected filter to be cleared")
	}
}
