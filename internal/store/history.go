package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

func (s *Store) RecordHistory(e HistoryEntry) (*HistoryEntry, error) {
	if !e.Outcome.Terminal() {
		return nil, fmt.Errorf("record history: %w: outcome %q", pomodoro.ErrInvalidInput, e.Outcome)
	}
	if e.EndedAt.IsZero() {
		e.EndedAt = s.clock.Now()
	}
	res, err := s.db.Exec(
		`INSERT INTO session_log (remote_id, task_id, task_title, session_type, outcome, planned_seconds, focused_seconds, paused_ms, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RemoteID, e.TaskID, e.TaskTitle, string(e.SessionType), string(e.Outcome),
		e.PlannedSeconds, e.FocusedSeconds, e.PausedMs, formatTime(e.EndedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	e.ID, _ = res.LastInsertId()
	return &e, nil
}

func (s *Store) ListHistory(f HistoryFilter) ([]HistoryEntry, error) {
	query := `SELECT id, remote_id, task_id, task_title, session_type, outcome, planned_seconds, focused_seconds, paused_ms, ended_at
	          FROM session_log WHERE 1=1`
	var args []any

	if f.SessionType != nil {
		query += ` AND session_type = ?`
		args = append(args, string(*f.SessionType))
	}
	if f.From != nil {
		query += ` AND ended_at >= ?`
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		query += ` AND ended_at < ?`
		args = append(args, formatTime(*f.To))
	}
	query += ` ORDER BY ended_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var remoteID, taskID sql.NullInt64
		var sessionType, outcome, endedAt string
		if err := rows.Scan(&e.ID, &remoteID, &taskID, &e.TaskTitle, &sessionType, &outcome,
			&e.PlannedSeconds, &e.FocusedSeconds, &e.PausedMs, &endedAt); err != nil {
			return nil, err
		}
		if remoteID.Valid {
			e.RemoteID = &remoteID.Int64
		}
		if taskID.Valid {
			e.TaskID = &taskID.Int64
		}
		e.SessionType = pomodoro.SessionType(sessionType)
		e.Outcome = pomodoro.SessionState(outcome)
		e.EndedAt = parseTime(endedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DailyFocus aggregates completed focus sessions per local day in
// [from, to). Days without sessions are included with zero values so
// charts get a continuous axis.
func (s *Store) DailyFocus(from, to time.Time) ([]DailyFocus, error) {
	focus := pomodoro.Focus
	entries, err := s.ListHistory(HistoryFilter{SessionType: &focus, From: &from, To: &to})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*DailyFocus)
	var days []DailyFocus
	loc := from.Location()
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		days = append(days, DailyFocus{Date: d.Format("2006-01-02")})
	}
	for i := range days {
		byDay[days[i].Date] = &days[i]
	}
	for _, e := range entries {
		if e.Outcome != pomodoro.StateCompleted {
			continue
		}
		day, ok := byDay[e.EndedAt.In(loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		day.Completed++
		day.FocusSeconds += e.FocusedSeconds
	}
	return days, nil
}

// HistoryTotals sums completed focus time over all recorded history.
func (s *Store) HistoryTotals() (completed int, focusSeconds int64, err error) {
	err = s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(focused_seconds), 0)
		FROM session_log
		WHERE session_type = 'focus' AND outcome = 'completed'`,
	).Scan(&completed, &focusSeconds)
	return
}
