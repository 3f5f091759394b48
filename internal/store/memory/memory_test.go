package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dropDatabas3/taskboard/internal/store/core"
	"github.com/dropDatabas3/taskboard/internal/store/memory"
)

func TestTaskCRUD(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	created, err := s.Create(ctx, core.TaskCreate{Title: "primera", Status: core.StatusTodo}, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != 1 || created.ReporterID != "user-1" {
		t.Fatalf("task inesperada: %+v", created)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatal("timestamps sin setear")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "primera" {
		t.Fatalf("title = %q", got.Title)
	}

	if err := s.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get tras delete: err = %v, esperaba ErrNotFound", err)
	}
	if err := s.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete doble: err = %v, esperaba ErrNotFound", err)
	}
}

func TestUpdateIsMergePatch(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	created, err := s.Create(ctx, core.TaskCreate{
		Title:       "con descripción",
		Description: "detalle",
		Status:      core.StatusTodo,
		AssigneeID:  "user-2",
	}, "user-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := core.StatusDone
	updated, err := s.Update(ctx, created.ID, core.TaskPatch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Sólo status cambió; el resto queda intacto.
	if updated.Status != core.StatusDone {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.Title != "con descripción" || updated.Description != "detalle" || updated.AssigneeID != "user-2" {
		t.Fatalf("el patch pisó campos no incluidos: %+v", updated)
	}
	if updated.ReporterID != "user-1" {
		t.Fatalf("reporter_id = %q", updated.ReporterID)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) && !updated.UpdatedAt.Equal(created.UpdatedAt) {
		t.Fatal("updated_at no avanzó")
	}

	if _, err := s.Update(ctx, 999, core.TaskPatch{Status: &done}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update inexistente: err = %v, esperaba ErrNotFound", err)
	}
}

func TestListPagination(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := s.Create(ctx, core.TaskCreate{Title: "t", Status: core.StatusTodo}, "u"); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	page, err := s.List(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 4 {
		t.Fatalf("página inesperada: %+v", page)
	}

	empty, err := s.List(ctx, 10, 2)
	if err != nil {
		t.Fatalf("list fuera de rango: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("esperaba página vacía, got %d", len(empty))
	}
}

func TestEventCounts(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for _, et := range []string{core.EventTaskCreated, core.EventTaskCompleted, core.EventTaskCompleted} {
		e := &core.Event{EventType: et, UserID: "u"}
		if err := s.Insert(ctx, e); err != nil {
			t.Fatalf("insert %s: %v", et, err)
		}
		if e.ID == "" || e.Timestamp.IsZero() {
			t.Fatal("insert debería asignar id y timestamp")
		}
	}

	total, err := s.CountAll(ctx)
	if err != nil || total != 3 {
		t.Fatalf("countall = %d, %v", total, err)
	}
	done, err := s.CountByType(ctx, core.EventTaskCompleted)
	if err != nil || done != 2 {
		t.Fatalf("countbytype = %d, %v", done, err)
	}
}
