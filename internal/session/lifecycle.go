package session

import (
	"encoding/json"
	"log"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/timer"
)

// LifecycleKey is the local_state key for the controller's own state.
const LifecycleKey = "focusflow-timer"

const dateLayout = "2006-01-02"

// Lifecycle is the persisted session bookkeeping.
type Lifecycle struct {
	CurrentTaskID    *int64               `json:"currentTaskId"`
	CurrentTaskTitle string               `json:"currentTaskTitle,omitempty"`
	SessionType      pomodoro.SessionType `json:"sessionType"`
	CurrentSessionID *int64               `json:"currentSessionId"`
	CompletedToday   int                  `json:"completedToday"`
	LastResetDate    string               `json:"lastResetDate"`
}

// DailyCounter counts completed focus sessions for one calendar day.
type DailyCounter struct {
	Completed     int
	LastResetDate string
}

// Increment records one completed focus session at now. The count drops to
// zero first if the last reset happened on an earlier local day, so the
// reset happens once per day and only when a session completes.
func (d *DailyCounter) Increment(now time.Time) {
	today := now.Format(dateLayout)
	if d.LastResetDate != today {
		d.Completed = 0
		d.LastResetDate = today
	}
	d.Completed++
}

func loadLifecycle(st timer.StateStore) Lifecycle {
	life := Lifecycle{SessionType: pomodoro.Focus}
	if st == nil {
		return life
	}
	data, err := st.GetState(LifecycleKey)
	if err != nil || data == nil {
		return life
	}
	var saved Lifecycle
	if err := json.Unmarshal(data, &saved); err != nil {
		return life
	}
	if !saved.SessionType.Valid() {
		saved.SessionType = pomodoro.Focus
	}
	if saved.CompletedToday < 0 {
		saved.CompletedToday = 0
	}
	return saved
}

func saveLifecycle(st timer.StateStore, life Lifecycle) {
	if st == nil {
		return
	}
	data, err := json.Marshal(life)
	if err != nil {
		log.Printf("encode lifecycle: %v", err)
		return
	}
	if err := st.PutState(LifecycleKey, data); err != nil {
		log.Printf("save lifecycle: %v", err)
	}
}
