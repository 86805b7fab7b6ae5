package session

import (
	"encoding/json"
	"fmt"

	"github.com/sadopc/focusflow/internal/timer"
)

// PreferencesKey is the local_state key for UI preferences.
const PreferencesKey = "focusflow-ui"

type Preferences struct {
	Theme        string `json:"theme"`
	ColorScheme  string `json:"colorScheme"`
	FocusMinutes int    `json:"focusMinutes"`
	BreakMinutes int    `json:"breakMinutes"`
	Language     string `json:"language"`
	Immersive    bool   `json:"immersive"`
	BreakBGM     bool   `json:"breakBGM"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:        "dark",
		ColorScheme:  "default",
		FocusMinutes: 25,
		BreakMinutes: 5,
		Language:     "en",
		BreakBGM:     true,
	}
}

// normalize replaces unknown or out of range values with defaults.
func (p Preferences) normalize() Preferences {
	d := DefaultPreferences()
	if p.Theme != "light" && p.Theme != "dark" {
		p.Theme = d.Theme
	}
	if p.ColorScheme != "default" && p.ColorScheme != "forest" {
		p.ColorScheme = d.ColorScheme
	}
	if p.Language != "en" && p.Language != "zh" {
		p.Language = d.Language
	}
	if p.FocusMinutes < 1 || p.FocusMinutes > 60 {
		p.FocusMinutes = d.FocusMinutes
	}
	if p.BreakMinutes < 1 || p.BreakMinutes > 60 {
		p.BreakMinutes = d.BreakMinutes
	}
	return p
}

// LoadPreferences returns the saved preferences, or the defaults when none
// are saved or they can't be parsed.
func LoadPreferences(st timer.StateStore) Preferences {
	p := DefaultPreferences()
	if st == nil {
		return p
	}
	data, err := st.GetState(PreferencesKey)
	if err != nil || data == nil {
		return p
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return DefaultPreferences()
	}
	return p.normalize()
}

func SavePreferences(st timer.StateStore, p Preferences) error {
	data, err := json.Marshal(p.normalize())
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := st.PutState(PreferencesKey, data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}
