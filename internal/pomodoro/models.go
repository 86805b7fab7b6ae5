package pomodoro

import "time"

type SessionType string

const (
	Focus SessionType = "focus"
	Break SessionType = "break"
)

// Other returns the session type that follows t.
func (t SessionType) Other() SessionType {
	if t == Focus {
		return Break
	}
	return Focus
}

func (t SessionType) Valid() bool {
	return t == Focus || t == Break
}

type SessionState string

const (
	StatePending   SessionState = "pending"
	StateActive    SessionState = "active"
	StateCompleted SessionState = "completed"
	StateCancelled SessionState = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

func (s SessionState) Valid() bool {
	switch s {
	case StatePending, StateActive, StateCompleted, StateCancelled:
		return true
	}
	return false
}

type Session struct {
	ID               int64        `json:"id"`
	TaskID           *int64       `json:"task_id,omitempty"`
	SessionType      SessionType  `json:"session_type"`
	DurationMinutes  int          `json:"duration"`
	State            SessionState `json:"state"`
	StartedAt        *time.Time   `json:"started_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	PausedDurationMs int64        `json:"paused_duration_ms"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        *time.Time   `json:"updated_at,omitempty"`
}

type SessionCreate struct {
	TaskID          *int64      `json:"task_id,omitempty"`
	SessionType     SessionType `json:"session_type"`
	DurationMinutes int         `json:"duration"`
}

// SessionUpdate is a partial update; nil fields are left unchanged.
type SessionUpdate struct {
	State            *SessionState `json:"state,omitempty"`
	StartedAt        *time.Time    `json:"started_at,omitempty"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	PausedDurationMs *int64        `json:"paused_duration_ms,omitempty"`
}

type TodayStats struct {
	CompletedToday    int `json:"completed_today"`
	TotalFocusMinutes int `json:"total_focus_time_minutes"`
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Order       int        `json:"order"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type TaskCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// Ptr is a small helper for building partial updates.
func Ptr[T any](v T) *T {
	return &v
}
