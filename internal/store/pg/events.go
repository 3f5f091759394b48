package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/taskboard/internal/store/core"
)

func (s *Store) Insert(ctx context.Context, e *core.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var details []byte
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = b
	}

	const q = `
		INSERT INTO event_logs (id, event_type, user_id, ts, details)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	_, err := s.pool.Exec(ctx, q, e.ID, e.EventType, e.UserID, e.Timestamp, details)
	return err
}

func (s *Store) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_logs`).Scan(&n)
	return n, err
}

func (s *Store) CountByType(ctx context.Context, eventType string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM event_logs WHERE event_type = $1`, eventType).Scan(&n)
	return n, err
}
