package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/message"

	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/timer"
)

// focusModel renders the countdown. All timer state lives in the
// controller; this view only reads it.
type focusModel struct {
	ctrl   *session.Controller
	p      *message.Printer
	width  int
	height int
}

func newFocusModel(ctrl *session.Controller, p *message.Printer) focusModel {
	return focusModel{ctrl: ctrl, p: p}
}

func (f *focusModel) setSize(w, h int) {
	f.width = w
	f.height = h
}

func (f focusModel) update(msg tea.Msg) (focusModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, keys.Skip) {
		if f.ctrl.SkipBreak() {
			return f, func() tea.Msg {
				return statusMsg{text: f.p.Sprintf("status.skipped")}
			}
		}
	}
	return f, nil
}

func (f focusModel) view() string {
	w := f.width - 4
	if w < 20 {
		w = 20
	}
	c := f.ctrl
	sessionType := c.SessionType()

	title := titleStyle.Render(f.p.Sprintf("focus.title"))
	if sessionType == pomodoro.Break {
		title = titleStyle.Render(f.p.Sprintf("break.title"))
	}

	phaseStyle := accentStyle
	if sessionType == pomodoro.Break {
		phaseStyle = successStyle
	}

	var timeDisplay, stateLabel, hint string
	countdown := formatCountdown(c.TimeLeft())
	switch c.Status() {
	case timer.Running:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(countdown)
		stateLabel = phaseStyle.Bold(true).Render(f.p.Sprintf("state.running"))
		hint = f.p.Sprintf("hint.running")
	case timer.Paused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(countdown)
		stateLabel = warningStyle.Bold(true).Render(f.p.Sprintf("state.paused"))
		hint = f.p.Sprintf("hint.paused")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(countdown)
		stateLabel = mutedStyle.Render(f.p.Sprintf("state.idle"))
		hint = f.p.Sprintf("hint.idle")
	}
	if sessionType == pomodoro.Break {
		hint += "  " + f.p.Sprintf("hint.break")
	}

	task := mutedStyle.Render(f.p.Sprintf("no_task"))
	if c.CurrentTaskID() != nil {
		task = highlightStyle.Render(f.p.Sprintf("working_on", c.CurrentTaskTitle()))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		stateLabel,
		"",
		renderProgressBar(c.Progress(), min(w-10, 40)),
		"",
		f.renderCompleted(),
		task,
	)

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", mutedStyle.Render(hint)),
	)
}

// renderCompleted shows today's focus sessions as dots, one per session up
// to a handful, then a count.
func (f focusModel) renderCompleted() string {
	n := f.ctrl.CompletedToday()
	var parts []string
	for i := 0; i < min(n, 8); i++ {
		parts = append(parts, successStyle.Render("●"))
	}
	if n < 8 {
		parts = append(parts, mutedStyle.Render("○"))
	}
	dots := strings.Join(parts, " ")
	return dots + "  " + mutedStyle.Render(f.p.Sprintf("completed_today", n))
}

func renderProgressBar(progress float64, width int) string {
	if width < 4 {
		width = 4
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	bar := accentStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
	return bar + mutedStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))
}
