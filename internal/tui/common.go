package tui

import (
	"fmt"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewFocus viewState = iota
	viewTasks
	viewToday
	viewReports
	viewSettings
)

var viewNames = []string{"Focus", "Tasks", "Today", "Reports", "Settings"}

// --- Messages ---

// tickMsg drives the countdown. It carries the handle it was scheduled
// for so ticks from an earlier run are dropped.
type tickMsg struct {
	handle timer.Handle
}

// audioTickMsg drives the BGM stop fade and track looping.
type audioTickMsg struct{}

// jobDoneMsg carries the result of a background session call back to the
// event loop.
type jobDoneMsg struct {
	apply func()
}

type statusMsg struct {
	text    string
	isError bool
}

type taskSelectedMsg struct {
	task *pomodoro.Task
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

// errorSink collects background failures reported by the controller until
// the app shows them.
type errorSink struct {
	last string
}

func (e *errorSink) report(op string, err error) {
	e.last = fmt.Sprintf("%s: %v", op, err)
}

func (e *errorSink) take() string {
	s := e.last
	e.last = ""
	return s
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatMinutes(mins int) string {
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %02dm", mins/60, mins%60)
}

// formatCountdown renders a countdown as MM:SS, rounding partial seconds up
// so the display never shows 00:00 while time is left.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
