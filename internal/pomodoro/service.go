package pomodoro

import "context"

// SessionService is the Pomodoro Session Service contract. The REST client in
// internal/api and the offline SQLite store both implement it.
type SessionService interface {
	CreateSession(ctx context.Context, in SessionCreate) (*Session, error)
	GetSession(ctx context.Context, id int64) (*Session, error)
	// ActiveSession returns nil, nil when no session is active.
	ActiveSession(ctx context.Context) (*Session, error)
	UpdateSession(ctx context.Context, id int64, in SessionUpdate) (*Session, error)
	TodayStats(ctx context.Context) (*TodayStats, error)
}

// TaskService is the Task Service contract.
type TaskService interface {
	ListTasks(ctx context.Context, includeCompleted bool) ([]Task, error)
	GetTask(ctx context.Context, id int64) (*Task, error)
	CreateTask(ctx context.Context, in TaskCreate) (*Task, error)
	UpdateTask(ctx context.Context, id int64, in TaskUpdate) (*Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Validate checks a create request the way the backend does: a known session
// type and a duration between 1 and 60 minutes.
func (in SessionCreate) Validate() error {
	if !in.SessionType.Valid() {
		return invalidf("session type %q", in.SessionType)
	}
	if in.DurationMinutes < 1 || in.DurationMinutes > 60 {
		return invalidf("duration %d", in.DurationMinutes)
	}
	return nil
}

func (in SessionUpdate) Validate() error {
	if in.State != nil && !in.State.Valid() {
		return invalidf("state %q", *in.State)
	}
	if in.PausedDurationMs != nil && *in.PausedDurationMs < 0 {
		return invalidf("paused duration %d", *in.PausedDurationMs)
	}
	return nil
}

func (in TaskCreate) Validate() error {
	if in.Title == "" {
		return invalidf("empty title")
	}
	return nil
}
