package api

import (
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

// The backend emits timestamps with or without a zone depending on the
// column, so responses are decoded through string fields.

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseOptTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, ok := parseTime(*s)
	if !ok {
		return nil
	}
	return &t
}

func formatOptTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

type sessionDTO struct {
	ID               int64   `json:"id"`
	TaskID           *int64  `json:"task_id"`
	SessionType      string  `json:"session_type"`
	Duration         int     `json:"duration"`
	State            string  `json:"state"`
	StartedAt        *string `json:"started_at"`
	CompletedAt      *string `json:"completed_at"`
	PausedDurationMs int64   `json:"paused_duration_ms"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        *string `json:"updated_at"`
}

func (d sessionDTO) toSession() *pomodoro.Session {
	created, _ := parseTime(d.CreatedAt)
	return &pomodoro.Session{
		ID:               d.ID,
		TaskID:           d.TaskID,
		SessionType:      pomodoro.SessionType(d.SessionType),
		DurationMinutes:  d.Duration,
		State:            pomodoro.SessionState(d.State),
		StartedAt:        parseOptTime(d.StartedAt),
		CompletedAt:      parseOptTime(d.CompletedAt),
		PausedDurationMs: d.PausedDurationMs,
		CreatedAt:        created,
		UpdatedAt:        parseOptTime(d.UpdatedAt),
	}
}

type sessionUpdateDTO struct {
	State            *string `json:"state,omitempty"`
	StartedAt        *string `json:"started_at,omitempty"`
	CompletedAt      *string `json:"completed_at,omitempty"`
	PausedDurationMs *int64  `json:"paused_duration_ms,omitempty"`
}

func newSessionUpdateDTO(in pomodoro.SessionUpdate) sessionUpdateDTO {
	var state *string
	if in.State != nil {
		s := string(*in.State)
		state = &s
	}
	return sessionUpdateDTO{
		State:            state,
		StartedAt:        formatOptTime(in.StartedAt),
		CompletedAt:      formatOptTime(in.CompletedAt),
		PausedDurationMs: in.PausedDurationMs,
	}
}

type taskDTO struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	Order       int     `json:"order"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
}

func (d taskDTO) toTask() pomodoro.Task {
	created, _ := parseTime(d.CreatedAt)
	return pomodoro.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		Order:       d.Order,
		CreatedAt:   created,
		UpdatedAt:   parseOptTime(d.UpdatedAt),
	}
}
