package tui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
)

// todayModel shows today's totals from the session service next to the
// locally recorded history.
type todayModel struct {
	store  *store.Store
	ctrl   *session.Controller
	width  int
	height int

	recent         []store.HistoryEntry
	localCompleted int
	localFocus     int64
	lifetimeCount  int
	lifetimeFocus  int64
}

func newTodayModel(s *store.Store, ctrl *session.Controller) todayModel {
	return todayModel{store: s, ctrl: ctrl}
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	recent         []store.HistoryEntry
	localCompleted int
	localFocus     int64
	lifetimeCount  int
	lifetimeFocus  int64
	err            error
}

func (d todayModel) loadData() tea.Cmd {
	st := d.store
	return func() tea.Msg {
		var msg todayDataMsg
		var errs []error
		fail := func(op string, err error) {
			log.Printf("%s: %v", op, err)
			errs = append(errs, fmt.Errorf("%s: %w", op, err))
		}

		recent, err := st.ListHistory(store.HistoryFilter{Limit: 6})
		if err != nil {
			fail("list recent history", err)
		}
		msg.recent = recent

		now := time.Now()
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		days, err := st.DailyFocus(dayStart, dayStart.AddDate(0, 0, 1))
		if err != nil {
			fail("today's focus", err)
		}
		if len(days) == 1 {
			msg.localCompleted = days[0].Completed
			msg.localFocus = days[0].FocusSeconds
		}
		if msg.lifetimeCount, msg.lifetimeFocus, err = st.HistoryTotals(); err != nil {
			fail("history totals", err)
		}
		msg.err = errors.Join(errs...)
		return msg
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	if msg, ok := msg.(todayDataMsg); ok && msg.err == nil {
		d.recent = msg.recent
		d.localCompleted = msg.localCompleted
		d.localFocus = msg.localFocus
		d.lifetimeCount = msg.lifetimeCount
		d.lifetimeFocus = msg.lifetimeFocus
	}
	return d, nil
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderSummaryPanel(contentWidth),
		d.renderActivePanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d todayModel) renderSummaryPanel(w int) string {
	title := titleStyle.Render("Today")

	var synced string
	if stats := d.ctrl.Stats(); stats != nil {
		synced = fmt.Sprintf("  %-12s %s  %s",
			"Service",
			highlightStyle.Render(fmt.Sprintf("%d sessions", stats.CompletedToday)),
			mutedStyle.Render(formatMinutes(stats.TotalFocusMinutes)+" focused"),
		)
	} else {
		synced = fmt.Sprintf("  %-12s %s", "Service", mutedStyle.Render("not loaded"))
	}
	counter := fmt.Sprintf("  %-12s %s",
		"Counter",
		highlightStyle.Render(fmt.Sprintf("%d sessions", d.ctrl.CompletedToday())),
	)
	local := fmt.Sprintf("  %-12s %s  %s",
		"This machine",
		highlightStyle.Render(fmt.Sprintf("%d sessions", d.localCompleted)),
		mutedStyle.Render(formatSeconds(d.localFocus)+" focused"),
	)
	lifetime := mutedStyle.Render(fmt.Sprintf("  All time: %d sessions, %s",
		d.lifetimeCount, formatSeconds(d.lifetimeFocus)))

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, synced, counter, local, "", lifetime),
	)
}

func (d todayModel) renderActivePanel(w int) string {
	title := titleStyle.Render("Current Session")
	s := d.ctrl.ActiveSession()
	id := d.ctrl.CurrentSessionID()

	var line string
	switch {
	case id != nil:
		line = fmt.Sprintf("  #%d  %s  %s", *id, d.ctrl.SessionType(), d.ctrl.Status())
	case s != nil:
		started := "not started"
		if s.StartedAt != nil {
			started = "since " + s.StartedAt.Local().Format("15:04")
		}
		line = fmt.Sprintf("  #%d  %s  %s  %s", s.ID, s.SessionType, s.State, mutedStyle.Render(started))
	default:
		line = mutedStyle.Render("  None")
	}

	style := panelStyle
	if id != nil {
		style = activePanelStyle
	}
	return style.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, line))
}

func (d todayModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, e := range d.recent {
		status := successStyle.Render("✓")
		if e.Outcome == pomodoro.StateCancelled {
			status = errorStyle.Render("✗")
		}
		task := e.TaskTitle
		if task == "" {
			task = "-"
		}
		row := fmt.Sprintf("  %s %s  %-6s %-20s %s",
			status,
			e.EndedAt.Local().Format("Jan 02 15:04"),
			e.SessionType,
			task,
			formatSeconds(e.FocusedSeconds),
		)
		rows = append(rows, row)
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
