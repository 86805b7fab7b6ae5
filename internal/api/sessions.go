package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

var _ pomodoro.SessionService = (*Client)(nil)

func (c *Client) CreateSession(ctx context.Context, in pomodoro.SessionCreate) (*pomodoro.Session, error) {
	var out sessionDTO
	if err := c.do(ctx, http.MethodPost, "/pomodoro/sessions", nil, in, &out); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return out.toSession(), nil
}

func (c *Client) GetSession(ctx context.Context, id int64) (*pomodoro.Session, error) {
	var out sessionDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/pomodoro/sessions/%d", id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return out.toSession(), nil
}

func (c *Client) ActiveSession(ctx context.Context) (*pomodoro.Session, error) {
	var out *sessionDTO
	if err := c.do(ctx, http.MethodGet, "/pomodoro/active", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get active session: %w", err)
	}
	if out == nil {
		return nil, nil
	}
	return out.toSession(), nil
}

func (c *Client) UpdateSession(ctx context.Context, id int64, in pomodoro.SessionUpdate) (*pomodoro.Session, error) {
	var out sessionDTO
	path := fmt.Sprintf("/pomodoro/sessions/%d", id)
	if err := c.do(ctx, http.MethodPut, path, nil, newSessionUpdateDTO(in), &out); err != nil {
		return nil, fmt.Errorf("update session %d: %w", id, err)
	}
	return out.toSession(), nil
}

func (c *Client) TodayStats(ctx context.Context) (*pomodoro.TodayStats, error) {
	var out pomodoro.TodayStats
	if err := c.do(ctx, http.MethodGet, "/pomodoro/stats/today", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("today stats: %w", err)
	}
	return &out, nil
}
