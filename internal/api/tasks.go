package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

var _ pomodoro.TaskService = (*Client)(nil)

func (c *Client) ListTasks(ctx context.Context, includeCompleted bool) ([]pomodoro.Task, error) {
	q := url.Values{"include_completed": {strconv.FormatBool(includeCompleted)}}
	var out []taskDTO
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]pomodoro.Task, 0, len(out))
	for _, d := range out {
		tasks = append(tasks, d.toTask())
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*pomodoro.Task, error) {
	var out taskDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	t := out.toTask()
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, in pomodoro.TaskCreate) (*pomodoro.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var out taskDTO
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, in, &out); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	t := out.toTask()
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, in pomodoro.TaskUpdate) (*pomodoro.Task, error) {
	var out taskDTO
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), nil, in, &out); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	t := out.toTask()
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}
