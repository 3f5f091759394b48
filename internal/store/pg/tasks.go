package pg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/taskboard/internal/store/core"
)

const taskCols = `id, title, description, status, assignee_id, reporter_id, created_at, updated_at`

func scanTask(row pgx.Row) (*core.Task, error) {
	var t core.Task
	var desc, assignee *string
	if err := row.Scan(&t.ID, &t.Title, &desc, &t.Status, &assignee, &t.ReporterID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if desc != nil {
		t.Description = *desc
	}
	if assignee != nil {
		t.AssigneeID = *assignee
	}
	return &t, nil
}

func (s *Store) Create(ctx context.Context, in core.TaskCreate, reporterID string) (*core.Task, error) {
	const q = `
		INSERT INTO tasks (title, description, status, assignee_id, reporter_id, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5, NOW(), NOW())
		RETURNING ` + taskCols

	return scanTask(s.pool.QueryRow(ctx, q, in.Title, in.Description, in.Status, in.AssigneeID, reporterID))
}

func (s *Store) Get(ctx context.Context, id int64) (*core.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks WHERE id = $1`
	return scanTask(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) List(ctx context.Context, skip, limit int) ([]core.Task, error) {
	const q = `SELECT ` + taskCols + ` FROM tasks ORDER BY id ASC OFFSET $1 LIMIT $2`

	rows, err := s.pool.Query(ctx, q, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]core.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update arma el SET dinámicamente con sólo los campos presentes del patch.
// Un único statement con RETURNING: atómico por registro, sin tx explícita.
func (s *Store) Update(ctx context.Context, id int64, patch core.TaskPatch) (*core.Task, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	args = append(args, id)

	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", nullIfEmpty(*patch.Description))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.AssigneeID != nil {
		add("assignee_id", nullIfEmpty(*patch.AssigneeID))
	}
	sets = append(sets, "updated_at = NOW()")

	q := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + taskCols
	return scanTask(s.pool.QueryRow(ctx, q, args...))
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM tasks WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
