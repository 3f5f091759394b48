// Package memory implementa TaskStore y EventStore en memoria.
// Útil para desarrollo y testing; mismo contrato que el store real,
// incluyendo ErrNotFound y la ley de merge-patch.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/taskboard/internal/store/core"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]core.Task
	events []core.Event
}

func New() *Store {
	return &Store{
		nextID: 1,
		tasks:  make(map[int64]core.Task),
	}
}

func (s *Store) Create(ctx context.Context, in core.TaskCreate, reporterID string) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t := core.Task{
		ID:          s.nextID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		AssigneeID:  in.AssigneeID,
		ReporterID:  reporterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.tasks[t.ID] = t
	return &t, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &t, nil
}

func (s *Store) List(ctx context.Context, skip, limit int) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]core.Task, 0, limit)
	for i, id := range ids {
		if i < skip {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, s.tasks[id])
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch core.TaskPatch) (*core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	t = patch.Apply(t, time.Now().UTC())
	s.tasks[id] = t
	return &t, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ---- EventStore ----

func (s *Store) Insert(ctx context.Context, e *core.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.events)), nil
}

func (s *Store) CountByType(ctx context.Context, eventType string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n, nil
}
