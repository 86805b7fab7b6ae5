package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

// The methods in this file implement pomodoro.SessionService on SQLite so
// the client can run without a backend.

const sessionColumns = `id, task_id, session_type, duration, state, started_at, completed_at, paused_duration_ms, created_at, updated_at`

func (s *Store) CreateSession(ctx context.Context, in pomodoro.SessionCreate) (*pomodoro.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pomodoro_sessions (task_id, session_type, duration, state, created_at)
		 VALUES (?, ?, ?, 'pending', ?)`,
		in.TaskID, string(in.SessionType), in.DurationMinutes, formatTime(s.clock.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetSession(ctx, id)
}

func (s *Store) GetSession(ctx context.Context, id int64) (*pomodoro.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM pomodoro_sessions WHERE id = ?`, id)
	p, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get session %d: %w", id, pomodoro.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) ActiveSession(ctx context.Context) (*pomodoro.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM pomodoro_sessions WHERE state = 'active' ORDER BY created_at DESC, id DESC LIMIT 1`)
	p, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return p, nil
}

// UpdateSession applies a partial update. Sessions only move forward
// (pending → active → completed|cancelled, or straight from pending to a
// terminal state), and nothing changes once a terminal state is reached.
func (s *Store) UpdateSession(ctx context.Context, id int64, in pomodoro.SessionUpdate) (*pomodoro.Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.State.Terminal() {
		return nil, fmt.Errorf("update session %d (%s): %w", id, p.State, pomodoro.ErrTerminalState)
	}
	if in.State != nil {
		if *in.State == pomodoro.StatePending && p.State != pomodoro.StatePending {
			return nil, fmt.Errorf("update session %d: %w: %s -> pending", id, pomodoro.ErrInvalidInput, p.State)
		}
		p.State = *in.State
	}
	if in.StartedAt != nil {
		p.StartedAt = in.StartedAt
	}
	if in.CompletedAt != nil {
		p.CompletedAt = in.CompletedAt
	}
	if in.PausedDurationMs != nil {
		p.PausedDurationMs = *in.PausedDurationMs
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE pomodoro_sessions
		 SET state = ?, started_at = ?, completed_at = ?, paused_duration_ms = ?, updated_at = ?
		 WHERE id = ?`,
		string(p.State), nullTime(p.StartedAt), nullTime(p.CompletedAt), p.PausedDurationMs,
		formatTime(s.clock.Now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update session %d: %w", id, err)
	}
	return s.GetSession(ctx, id)
}

// TodayStats counts focus sessions completed since local midnight.
func (s *Store) TodayStats(ctx context.Context) (*pomodoro.TodayStats, error) {
	now := s.clock.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	st := &pomodoro.TodayStats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(duration), 0)
		FROM pomodoro_sessions
		WHERE session_type = 'focus'
		  AND state = 'completed'
		  AND completed_at >= ?`,
		formatTime(dayStart),
	).Scan(&st.CompletedToday, &st.TotalFocusMinutes)
	if err != nil {
		return nil, fmt.Errorf("today stats: %w", err)
	}
	return st, nil
}

func scanSession(row scanner) (*pomodoro.Session, error) {
	p := &pomodoro.Session{}
	var taskID sql.NullInt64
	var sessionType, state, createdAt string
	var startedAt, completedAt, updatedAt sql.NullString
	err := row.Scan(&p.ID, &taskID, &sessionType, &p.DurationMinutes, &state,
		&startedAt, &completedAt, &p.PausedDurationMs, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if taskID.Valid {
		p.TaskID = &taskID.Int64
	}
	p.SessionType = pomodoro.SessionType(sessionType)
	p.State = pomodoro.SessionState(state)
	p.StartedAt = parseNullTime(startedAt)
	p.CompletedAt = parseNullTime(completedAt)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseNullTime(updatedAt)
	return p, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
