// Package store owns the task list and its persistence as a single JSON
// item in a key-value storage.
package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/oklog/ulid/v2"

	"github.com/amirbrooks/taskboard/internal/logging"
	"github.com/amirbrooks/taskboard/internal/storage"
)

// DefaultKey is the storage key the task list lives under.
const DefaultKey = "taskboard_tasks"

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

// MatchConflictError is returned when an id prefix matches several tasks.
// It still satisfies errors.Is(err, ErrConflict).
type MatchConflictError struct {
	Prefix  string
	Matches []Task
}

func (e *MatchConflictError) Error() string {
	if e == nil || strings.TrimSpace(e.Prefix) == "" {
		return "conflict"
	}
	return fmt.Sprintf("conflict: %d tasks match %q", len(e.Matches), e.Prefix)
}

func (e *MatchConflictError) Is(target error) bool {
	return target == ErrConflict
}

type Options struct {
	Key    string
	Seed   bool
	Logger *log.Logger
}

// Store reads and writes the whole task list on every operation.
// Writes from one Store are serialized; separate processes are last-write-wins.
type Store struct {
	st     storage.Storage
	key    string
	logger *log.Logger

	mu sync.Mutex

	subMu  sync.Mutex
	nextID int
	subs   map[int]func()
}

// Open wraps st. When opts.Seed is set and nothing is stored under the key,
// three example tasks are written, one per column.
func Open(ctx context.Context, st storage.Storage, opts Options) (*Store, error) {
	if st == nil {
		return nil, errors.New("store: storage is nil")
	}
	key := strings.TrimSpace(opts.Key)
	if key == "" {
		key = DefaultKey
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Store{st: st, key: key, logger: logger, subs: map[int]func(){}}
	if opts.Seed {
		if err := s.seed(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Key() string { return s.key }

func (s *Store) seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok, err := s.st.GetItem(ctx, s.key)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	s.logger.Debug("seeding example tasks", "key", s.key)
	return s.save(ctx, SeedTasks(timeNow()))
}

// SeedTasks returns the example board written on first use.
func SeedTasks(now time.Time) []Task {
	due := now
	return []Task{
		{ID: "1", Title: "Design the login screen", Description: "Sketch the mockups", Priority: PriorityHigh, Tags: []string{"UI", "Design"}, AssignedTo: "Alex", Column: ColumnTodo},
		{ID: "2", Title: "Implement drag and drop", Description: "Move cards between columns", Priority: PriorityMedium, Tags: []string{"Frontend"}, AssignedTo: "Alex", DueDate: &due, Column: ColumnInProgress},
		{ID: "3", Title: "Set up CI", Description: "Build and test on every push", Priority: PriorityLow, Tags: []string{"DevOps"}, AssignedTo: "Alex", Column: ColumnDone},
	}
}

// List returns the stored tasks in stored order. Unparsable data yields an
// empty list rather than an error.
func (s *Store) List(ctx context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]Task, error) {
	data, ok, err := s.st.GetItem(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if !ok || strings.TrimSpace(data) == "" {
		return []Task{}, nil
	}
	tasks, badDates, err := decodeTasks(data)
	if err != nil {
		s.logger.Warn("stored tasks are unreadable, starting empty", "key", s.key, "err", err)
		return []Task{}, nil
	}
	if len(badDates) > 0 {
		s.logger.Warn("dropped unparsable due dates", "ids", strings.Join(badDates, ","))
	}
	tasks, r := repairTasks(tasks)
	if len(r.columns) > 0 {
		s.logger.Warn("moved tasks with unknown columns to To Do", "ids", strings.Join(r.columns, ","))
	}
	if len(r.priorities) > 0 {
		s.logger.Warn("reset unknown priorities to Medium", "ids", strings.Join(r.priorities, ","))
	}
	if len(r.duplicates) > 0 {
		s.logger.Warn("dropped tasks with repeated ids", "ids", strings.Join(r.duplicates, ","))
	}
	return tasks, nil
}

func (s *Store) save(ctx context.Context, tasks []Task) error {
	data, err := encodeTasks(tasks)
	if err != nil {
		return err
	}
	if err := s.st.SetItem(ctx, s.key, data); err != nil {
		return err
	}
	s.logger.Debug("saved tasks", "key", s.key, "count", len(tasks))
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return Task{}, ErrNotFound
}

// Resolve finds a task by exact id, then by unique case-insensitive id prefix.
func (s *Store) Resolve(ctx context.Context, prefix string) (Task, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Task{}, fmt.Errorf("%w: id is required", ErrInvalid)
	}
	tasks, err := s.List(ctx)
	if err != nil {
		return Task{}, err
	}
	var matches []Task
	upper := strings.ToUpper(prefix)
	for _, t := range tasks {
		if t.ID == prefix {
			return t, nil
		}
		if strings.HasPrefix(strings.ToUpper(t.ID), upper) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return Task{}, ErrNotFound
	case 1:
		return matches[0], nil
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return Task{}, &MatchConflictError{Prefix: prefix, Matches: matches}
}

// Add stores a new task in the To Do column under a freshly generated id.
func (s *Store) Add(ctx context.Context, in NewTask) (Task, error) {
	task := Task{
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Tags:        append([]string(nil), in.Tags...),
		AssignedTo:  in.AssignedTo,
		Column:      ColumnTodo,
	}
	if in.DueDate != nil {
		d := *in.DueDate
		task.DueDate = &d
	}
	if err := task.normalize(); err != nil {
		return Task{}, err
	}

	s.mu.Lock()
	tasks, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return Task{}, err
	}
	task.ID = uniqueID(tasks)
	tasks = append(tasks, task)
	err = s.save(ctx, tasks)
	s.mu.Unlock()
	if err != nil {
		return Task{}, err
	}
	s.notify()
	return task, nil
}

// Update replaces the stored task with the same id. Unknown ids are ignored.
func (s *Store) Update(ctx context.Context, task Task) error {
	return s.write(ctx, task, func(tasks []Task, i int, task Task) []Task {
		tasks[i] = task
		return tasks
	})
}

// Move replaces the stored task like Update and repositions it right before
// beforeID. An empty or unknown beforeID moves it to the end of the list.
func (s *Store) Move(ctx context.Context, task Task, beforeID string) error {
	return s.write(ctx, task, func(tasks []Task, i int, task Task) []Task {
		rest := append(tasks[:i:i], tasks[i+1:]...)
		at := len(rest)
		if beforeID != "" && beforeID != task.ID {
			for j, t := range rest {
				if t.ID == beforeID {
					at = j
					break
				}
			}
		}
		out := make([]Task, 0, len(tasks))
		out = append(out, rest[:at]...)
		out = append(out, task)
		return append(out, rest[at:]...)
	})
}

// write looks the id up before validating, so an unknown id is a no-op even
// when the task itself is invalid.
func (s *Store) write(ctx context.Context, task Task, apply func([]Task, int, Task) []Task) error {
	task = task.Clone()
	s.mu.Lock()
	tasks, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx := indexOf(tasks, task.ID)
	if idx < 0 {
		s.mu.Unlock()
		s.logger.Debug("ignoring write for unknown task", "id", task.ID)
		return nil
	}
	if err := task.normalize(); err != nil {
		s.mu.Unlock()
		return err
	}
	err = s.save(ctx, apply(tasks, idx, task))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Remove drops the task with id. Unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	tasks, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx := indexOf(tasks, id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	tasks = append(tasks[:idx], tasks[idx+1:]...)
	err = s.save(ctx, tasks)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Replace swaps in a whole new task list. Tasks without an id get one.
func (s *Store) Replace(ctx context.Context, tasks []Task) error {
	out := make([]Task, 0, len(tasks))
	seen := map[string]bool{}
	for _, t := range tasks {
		t = t.Clone()
		if err := t.normalize(); err != nil {
			return fmt.Errorf("task %q: %w", t.ID, err)
		}
		if t.ID == "" {
			t.ID = uniqueID(out)
		}
		if seen[t.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalid, t.ID)
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	s.mu.Lock()
	err := s.save(ctx, out)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

// Subscribe registers fn to run after every successful write.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Store) Close() error {
	return s.st.Close()
}

func indexOf(tasks []Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func uniqueID(existing []Task) string {
	for {
		id := newULID()
		if indexOf(existing, id) < 0 {
			return id
		}
	}
}

// newULID panics only if crypto/rand fails.
func newULID() string {
	id := ulid.MustNew(ulid.Timestamp(timeNow()), randReader{})
	return id.String()
}
