package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

const taskColumns = `id, title, description, completed, sort_order, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, in pomodoro.TaskCreate) (*pomodoro.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var next int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM tasks`).Scan(&next); err != nil {
		return nil, fmt.Errorf("next task order: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, description, sort_order, created_at) VALUES (?, ?, ?, ?)`,
		in.Title, in.Description, next, formatTime(s.clock.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.GetTask(ctx, id)
}

func (s *Store) GetTask(ctx context.Context, id int64) (*pomodoro.Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get task %d: %w", id, pomodoro.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, includeCompleted bool) ([]pomodoro.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	if !includeCompleted {
		query += ` WHERE completed = 0`
	}
	query += ` ORDER BY sort_order, created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []pomodoro.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id int64, in pomodoro.TaskUpdate) (*pomodoro.Task, error) {
	t, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("update task %d: %w: empty title", id, pomodoro.ErrInvalidInput)
		}
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}
	if in.Order != nil {
		t.Order = *in.Order
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET title = ?, description = ?, completed = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Description, boolInt(t.Completed), t.Order, formatTime(s.clock.Now()), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	return s.GetTask(ctx, id)
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete task %d: %w", id, pomodoro.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*pomodoro.Task, error) {
	t := &pomodoro.Task{}
	var desc, updatedAt sql.NullString
	var createdAt string
	var completed int
	if err := row.Scan(&t.ID, &t.Title, &desc, &completed, &t.Order, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = &desc.String
	}
	t.Completed = completed == 1
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseNullTime(updatedAt)
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
