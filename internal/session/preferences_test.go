package session

import (
	"testing"

	"github.com/sadopc/focusflow/internal/clock"
)

func TestPreferencesDefaults(t *testing.T) {
	st := newStore(t, clock.NewManual(start))
	p := LoadPreferences(st)
	if p != DefaultPreferences() {
		t.Errorf("LoadPreferences = %+v, want defaults", p)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	st := newStore(t, clock.NewManual(start))
	want := Preferences{
		Theme: "light", ColorScheme: "forest", FocusMinutes: 50, BreakMinutes: 10,
		Language: "zh", Immersive: true, BreakBGM: false,
	}
	if err := SavePreferences(st, want); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if got := LoadPreferences(st); got != want {
		t.Errorf("LoadPreferences = %+v, want %+v", got, want)
	}
}

func TestPreferencesNormalized(t *testing.T) {
	st := newStore(t, clock.NewManual(start))
	st.PutState(PreferencesKey, []byte(`{"theme":"neon","focusMinutes":0,"breakMinutes":99,"language":"fr","immersive":true}`))

	p := LoadPreferences(st)
	d := DefaultPreferences()
	if p.Theme != d.Theme || p.FocusMinutes != 25 || p.BreakMinutes != 5 || p.Language != "en" {
		t.Errorf("LoadPreferences = %+v", p)
	}
	if !p.Immersive {
		t.Error("valid field lost during normalization")
	}
}

func TestPreferencesCorrupt(t *testing.T) {
	st := newStore(t, clock.NewManual(start))
	st.PutState(PreferencesKey, []byte("]]"))
	if p := LoadPreferences(st); p != DefaultPreferences() {
		t.Errorf("LoadPreferences = %+v, want defaults", p)
	}
}
