package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/store"
)

const reportDays = 7

type reportsModel struct {
	store  *store.Store
	width  int
	height int

	days   []store.DailyFocus
	offset int // 7-day blocks back from today (0 = current)
	now    func() time.Time

	chart barchart.Model
}

func newReportsModel(s *store.Store) reportsModel {
	return reportsModel{
		store: s,
		now:   time.Now,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	days []store.DailyFocus
	err  error
}

func (r reportsModel) refresh() tea.Cmd {
	st := r.store
	from, to := r.dateRange()
	return func() tea.Msg {
		days, err := st.DailyFocus(from, to)
		return reportsDataMsg{days: days, err: err}
	}
}

// dateRange is the local-time window [from, to) of the days shown.
func (r reportsModel) dateRange() (time.Time, time.Time) {
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, 1-reportDays*r.offset)
	start := end.AddDate(0, 0, -reportDays)
	return start, end
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Load report: %v", msg.err), isError: true}
			}
		}
		r.days = msg.days
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, d := range r.days {
		label := d.Date
		if t, err := time.Parse("2006-01-02", d.Date); err == nil {
			label = t.Format("Mon 02")
		}
		style := lipgloss.NewStyle().Foreground(colorPrimary)
		if d.FocusSeconds == 0 {
			style = lipgloss.NewStyle().Foreground(colorSubtle)
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: float64(d.FocusSeconds) / 60,
				Style: style,
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) totals() (completed int, focusSeconds int64) {
	for _, d := range r.days {
		completed += d.Completed
		focusSeconds += d.FocusSeconds
	}
	return completed, focusSeconds
}

func (r reportsModel) view() string {
	w := r.width - 4

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.AddDate(0, 0, -1).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus Minutes"), "  ", dateLabel,
	)

	completed, focus := r.totals()
	summary := fmt.Sprintf("  %s  %s",
		highlightStyle.Render(fmt.Sprintf("%d sessions", completed)),
		mutedStyle.Render(formatSeconds(focus)+" focused"),
	)

	nav := mutedStyle.Render("  ←/→: navigate weeks")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", summary, "", r.renderTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderTable(w int) string {
	completed, _ := r.totals()
	if completed == 0 {
		return mutedStyle.Render("  No completed focus sessions in this period")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-12s %10s %10s", "Date", "Sessions", "Focused")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 34))))
	for _, d := range r.days {
		if d.Completed == 0 {
			continue
		}
		rows = append(rows, fmt.Sprintf("  %-12s %10d %10s", d.Date, d.Completed, formatSeconds(d.FocusSeconds)))
	}
	return strings.Join(rows, "\n")
}
