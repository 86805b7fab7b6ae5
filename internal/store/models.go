package store

import (
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

// HistoryEntry is one finished session as recorded on this machine,
// independent of which backend held the session.
type HistoryEntry struct {
	ID             int64
	RemoteID       *int64
	TaskID         *int64
	TaskTitle      string
	SessionType    pomodoro.SessionType
	Outcome        pomodoro.SessionState // completed or cancelled
	PlannedSeconds int64
	FocusedSeconds int64
	PausedMs       int64
	EndedAt        time.Time
}

// HistoryFilter is used to filter history entries in queries.
type HistoryFilter struct {
	SessionType *pomodoro.SessionType
	From        *time.Time
	To          *time.Time
	Limit       int
}

// DailyFocus represents aggregated completed focus time for one local day.
type DailyFocus struct {
	Date         string // 2006-01-02, local time
	Completed    int
	FocusSeconds int64
}
