package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/message"

	"github.com/sadopc/focusflow/internal/audio"
	"github.com/sadopc/focusflow/internal/export"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/timer"
)

// Deps is everything the app drives. Controller must have been built with
// Queue as its runner so background calls come back through the loop.
type Deps struct {
	Controller   *session.Controller
	Queue        *session.Queue
	Tasks        pomodoro.TaskService
	Store        *store.Store
	Audio        *audio.Sequencer
	TickInterval time.Duration
	Offline      bool
	ExportDir    string
}

// App is the root Bubble Tea model.
type App struct {
	ctrl      *session.Controller
	store     *store.Store
	clock     clockModel
	errs      *errorSink
	prefs     session.Preferences
	p         *message.Printer
	offline   bool
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	focus    focusModel
	tasks    tasksModel
	today    todayModel
	reports  reportsModel
	settings settingsModel

	help        help.Model
	status      string
	statusIsErr bool
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	errs := &errorSink{}
	d.Controller.SetOnError(errs.report)

	var music bgmTicker
	if d.Audio != nil {
		music = d.Audio
	}

	prefs := session.LoadPreferences(d.Store)
	applyTheme(prefs.Theme, prefs.ColorScheme)
	p := printerFor(prefs.Language)

	exportDir := d.ExportDir
	if exportDir == "" {
		exportDir, _ = os.UserHomeDir()
	}

	return App{
		ctrl:       d.Controller,
		store:      d.Store,
		clock:      newClockModel(d.Controller, d.Queue, music, d.TickInterval),
		errs:       errs,
		prefs:      prefs,
		p:          p,
		offline:    d.Offline,
		exportDir:  exportDir,
		activeView: viewFocus,
		focus:      newFocusModel(d.Controller, p),
		tasks:      newTasksModel(d.Tasks),
		today:      newTodayModel(d.Store, d.Controller),
		reports:    newReportsModel(d.Store),
		settings:   newSettingsModel(d.Store, prefs),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	a.ctrl.Reconcile()
	return tea.Batch(
		a.clock.jobs(),
		a.today.loadData(),
		a.tasks.refresh(),
	)
}

// afterControl collects the follow-up work of a controller call: queued
// session requests and, when music is playing, audio ticks.
func (a *App) afterControl() tea.Cmd {
	return tea.Batch(a.clock.jobs(), a.clock.audioCmd())
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusIsErr = isErr
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.focus.setSize(a.width, contentHeight)
		a.tasks.setSize(a.width, contentHeight)
		a.today.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Start):
			cmd := a.clock.start()
			return a, tea.Batch(cmd, a.afterControl())
		case key.Matches(msg, keys.Pause):
			cmd := a.clock.toggle()
			return a, tea.Batch(cmd, a.afterControl())
		case key.Matches(msg, keys.Stop):
			if a.ctrl.Status() == timer.Running || a.ctrl.Status() == timer.Paused {
				a.ctrl.Stop()
				a.setStatus(a.p.Sprintf("status.stopped"), false)
			}
			return a, tea.Batch(a.afterControl(), a.today.loadData())
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Tasks), key.Matches(msg, keys.Tab2):
			a.activeView = viewTasks
			return a, a.tasks.refresh()
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewFocus
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewToday
			return a, a.today.loadData()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewReports
			return a, a.reports.refresh()
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case tickMsg:
		cmd, finished := a.clock.tick(msg)
		if !finished {
			return a, cmd
		}
		// The session type has already flipped to the next one.
		text := a.p.Sprintf("status.focus_done")
		if a.ctrl.SessionType() == pomodoro.Focus {
			text = a.p.Sprintf("status.break_done")
		}
		a.setStatus(text, false)
		return a, tea.Batch(a.afterControl(), a.today.loadData(), a.reports.refresh())

	case audioTickMsg:
		return a, a.clock.audioTick()

	case jobDoneMsg:
		if msg.apply != nil {
			msg.apply()
		}
		if text := a.errs.take(); text != "" {
			a.setStatus(text, true)
		}
		return a, a.afterControl()

	case statusMsg:
		a.setStatus(msg.text, msg.isError)
		return a, nil

	case exportDoneMsg:
		a.setStatus("Exported to "+msg.path, false)
		a.exportPicking = false
		return a, nil

	case taskSelectedMsg:
		if msg.task == nil {
			a.ctrl.SelectTask(nil, "")
			a.setStatus("Task cleared", false)
			return a, nil
		}
		id := msg.task.ID
		a.ctrl.SelectTask(&id, msg.task.Title)
		a.setStatus(a.p.Sprintf("working_on", msg.task.Title), false)
		a.activeView = viewFocus
		return a, nil

	case taskChangedMsg:
		if msg.err == nil && msg.gone {
			if cur := a.ctrl.CurrentTaskID(); cur != nil && *cur == msg.id {
				a.ctrl.SelectTask(nil, "")
			}
		}
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case tasksDataMsg:
		var cmd tea.Cmd
		a.tasks, cmd = a.tasks.update(msg)
		return a, cmd

	case todayDataMsg:
		if msg.err != nil {
			a.setStatus(fmt.Sprintf("Today: %v", msg.err), true)
		}
		var cmd tea.Cmd
		a.today, cmd = a.today.update(msg)
		return a, cmd

	case reportsDataMsg:
		var cmd tea.Cmd
		a.reports, cmd = a.reports.update(msg)
		return a, cmd

	case prefsSavedMsg:
		a.applyPreferences(msg.prefs)
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		a.setStatus("Settings saved", false)
		return a, tea.Batch(cmd, a.afterControl())
	}

	return a.updateActiveView(msg)
}

func (a *App) applyPreferences(p session.Preferences) {
	a.prefs = p
	applyTheme(p.Theme, p.ColorScheme)
	a.p = printerFor(p.Language)
	a.focus.p = a.p
	a.ctrl.SetDurations(p.FocusMinutes, p.BreakMinutes)
	a.ctrl.SetBreakBGM(p.BreakBGM)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewFocus:
		a.focus, cmd = a.focus.update(msg)
		return a, tea.Batch(cmd, a.afterControl())
	case viewTasks:
		a.tasks, cmd = a.tasks.update(msg)
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.tasks.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.tasks.refresh()
	case viewToday:
		return a.today.loadData()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

// immersive reports whether chrome is hidden: the preference is on and the
// countdown is running.
func (a App) immersive() bool {
	return a.prefs.Immersive && a.ctrl.Running()
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.immersive() {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.focus.view())
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewFocus:
		content = a.focus.view()
	case viewTasks:
		content = a.tasks.view(a.ctrl.CurrentTaskID())
	case viewToday:
		content = a.today.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("focusflow")
	mode := successStyle.Render(" " + a.p.Sprintf("mode.online"))
	if a.offline {
		mode = warningStyle.Render(" " + a.p.Sprintf("mode.offline"))
	}
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(mode) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, mode, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusIsErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicator in footer
	timerInfo := ""
	switch a.ctrl.Status() {
	case timer.Running:
		timerInfo = successStyle.Render(" ● " + formatCountdown(a.ctrl.TimeLeft()))
	case timer.Paused:
		timerInfo = warningStyle.Render(" ⏸ " + formatCountdown(a.ctrl.TimeLeft()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export History")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	st := a.store
	dir := a.exportDir
	return func() tea.Msg {
		entries, err := st.ListHistory(store.HistoryFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("focusflow-export-%s.csv", dateStr))
			if err := export.ToCSV(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("focusflow-export-%s.json", dateStr))
			if err := export.ToJSON(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
