// Package board derives the per-column view of the task list and moves
// cards between and within columns.
package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirbrooks/taskboard/internal/store"
)

// TaskStore is the part of the task store a Board reads and writes through.
type TaskStore interface {
	List(ctx context.Context) ([]store.Task, error)
	Move(ctx context.Context, task store.Task, beforeID string) error
}

// Board holds the current search text and tag selection over a store.
// The grouped view is recomputed from the store on every call.
type Board struct {
	store  TaskStore
	search string
	tags   []string
}

func New(st TaskStore) *Board {
	return &Board{store: st, tags: []string{}}
}

func (b *Board) Search() string { return b.search }

func (b *Board) SetSearch(s string) { b.search = s }

// Tags returns the selected tags in selection order.
func (b *Board) Tags() []string { return append([]string(nil), b.tags...) }

func (b *Board) SetTags(tags []string) { b.tags = store.NormalizeTags(tags) }

// ToggleTag adds tag to the selection, or removes it when already selected.
func (b *Board) ToggleTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return
	}
	for i, t := range b.tags {
		if t == tag {
			b.tags = append(b.tags[:i:i], b.tags[i+1:]...)
			return
		}
	}
	b.tags = append(b.tags, tag)
}

func (b *Board) ClearFilter() {
	b.search = ""
	b.tags = []string{}
}

// Filtering reports whether a search or a tag selection is active.
func (b *Board) Filtering() bool {
	return b.search != "" || len(b.tags) > 0
}

func (b *Board) Grouped(ctx context.Context) (Grouped, error) {
	tasks, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return Group(tasks, b.search, b.tags), nil
}

// AllTags lists the tags of every stored task, ignoring the current filter.
func (b *Board) AllTags(ctx context.Context) ([]string, error) {
	tasks, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return AllTags(tasks), nil
}

// Reorder applies a drop on the current view: the card at sourceIndex in
// source lands at destIndex in dest. The moved task is written through the
// store, anchored before the card that follows it in dest, so the order
// survives a reload. destIndex is clamped.
func (b *Board) Reorder(ctx context.Context, source, dest store.Column, sourceIndex, destIndex int) (store.Task, error) {
	if !source.Valid() {
		return store.Task{}, fmt.Errorf("%w: unknown source column %q", store.ErrInvalid, source)
	}
	if !dest.Valid() {
		return store.Task{}, fmt.Errorf("%w: unknown destination column %q", store.ErrInvalid, dest)
	}
	view, err := b.Grouped(ctx)
	if err != nil {
		return store.Task{}, err
	}
	from := view[source]
	if sourceIndex < 0 || sourceIndex >= len(from) {
		return store.Task{}, fmt.Errorf("%w: index %d out of range for %q (%d tasks)", store.ErrInvalid, sourceIndex, source, len(from))
	}
	task := from[sourceIndex].Clone()

	var to []store.Task
	if source == dest {
		to = MoveItem(from, sourceIndex, destIndex)
	} else {
		_, to = TransferItem(from, view[dest], sourceIndex, destIndex)
		task.Column = dest
	}

	anchor := ""
	for i, t := range to {
		if t.ID == task.ID {
			if i+1 < len(to) {
				anchor = to[i+1].ID
			}
			break
		}
	}
	if err := b.store.Move(ctx, task, anchor); err != nil {
		return store.Task{}, err
	}
	return task, nil
}
