package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/store"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	prefs      session.Preferences
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusMinutes *string
	breakMinutes *string
	breakBGM     *bool
	theme        *string
	colorScheme  *string
	language     *string
	immersive    *bool
}

func newSettingsModel(s *store.Store, prefs session.Preferences) settingsModel {
	fm, bm, th, cs, lang := "", "", "", "", ""
	bgm, imm := false, false
	return settingsModel{
		store:        s,
		prefs:        prefs,
		focusMinutes: &fm,
		breakMinutes: &bm,
		breakBGM:     &bgm,
		theme:        &th,
		colorScheme:  &cs,
		language:     &lang,
		immersive:    &imm,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

// prefsSavedMsg carries preferences that were just persisted so the app can
// apply them.
type prefsSavedMsg struct {
	prefs session.Preferences
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case prefsSavedMsg:
		s.prefs = msg.prefs
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter):
			return s.showForm()
		}
	}
	return s, nil
}

func validateMinutes(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 60 {
		return fmt.Errorf("enter a number from 1 to 60")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.focusMinutes = strconv.Itoa(s.prefs.FocusMinutes)
	*s.breakMinutes = strconv.Itoa(s.prefs.BreakMinutes)
	*s.breakBGM = s.prefs.BreakBGM
	*s.theme = s.prefs.Theme
	*s.colorScheme = s.prefs.ColorScheme
	*s.language = s.prefs.Language
	*s.immersive = s.prefs.Immersive

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Focus (min)").Value(s.focusMinutes).Validate(validateMinutes),
			huh.NewInput().Title("Break (min)").Value(s.breakMinutes).Validate(validateMinutes),
			huh.NewConfirm().Title("Music during breaks").Value(s.breakBGM),
		).Title("Timer"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).Value(s.theme),
			huh.NewSelect[string]().Title("Color scheme").
				Options(
					huh.NewOption("Default", "default"),
					huh.NewOption("Forest", "forest"),
				).Value(s.colorScheme),
			huh.NewSelect[string]().Title("Language").
				Options(
					huh.NewOption("English", "en"),
					huh.NewOption("中文", "zh"),
				).Value(s.language),
			huh.NewConfirm().Title("Immersive mode").
				Description("Hide header and footer while the timer runs").
				Value(s.immersive),
		).Title("Appearance"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save(s.formPrefs())
	}

	return s, cmd
}

func (s settingsModel) formPrefs() session.Preferences {
	p := s.prefs
	if n, err := strconv.Atoi(*s.focusMinutes); err == nil {
		p.FocusMinutes = n
	}
	if n, err := strconv.Atoi(*s.breakMinutes); err == nil {
		p.BreakMinutes = n
	}
	p.BreakBGM = *s.breakBGM
	p.Theme = *s.theme
	p.ColorScheme = *s.colorScheme
	p.Language = *s.language
	p.Immersive = *s.immersive
	return p
}

func (s settingsModel) save(p session.Preferences) tea.Cmd {
	st := s.store
	return func() tea.Msg {
		if err := session.SavePreferences(st, p); err != nil {
			return statusMsg{text: err.Error(), isError: true}
		}
		return prefsSavedMsg{prefs: session.LoadPreferences(st)}
	}
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	p := s.prefs
	rows := []string{title, ""}
	for _, kv := range [][2]string{
		{"Focus", fmt.Sprintf("%d min", p.FocusMinutes)},
		{"Break", fmt.Sprintf("%d min", p.BreakMinutes)},
		{"Break music", onOff(p.BreakBGM)},
		{"Theme", p.Theme},
		{"Color scheme", p.ColorScheme},
		{"Language", p.Language},
		{"Immersive", onOff(p.Immersive)},
	} {
		label := lipgloss.NewStyle().Width(16).Render(kv[0])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(kv[1])))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
