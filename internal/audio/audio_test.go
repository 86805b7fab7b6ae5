package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/pomodoro"
)

type fakeStream struct {
	path    string
	volumes []float64
	done    bool
	stopped bool
}

func (f *fakeStream) Done() bool { return f.done || f.stopped }
func (f *fakeStream) Stop()      { f.stopped = true }
func (f *fakeStream) SetVolume(v float64) {
	f.volumes = append(f.volumes, v)
	if v <= 0 {
		f.stopped = true
	}
}

type fakePlayer struct {
	streams []*fakeStream
	fail    map[string]bool
}

func (p *fakePlayer) Play(path string, volume float64) (Stream, error) {
	if p.fail[path] {
		return nil, errors.New("decode failed")
	}
	s := &fakeStream{path: path, volumes: []float64{volume}}
	p.streams = append(p.streams, s)
	return s, nil
}

func (p *fakePlayer) last() *fakeStream {
	if len(p.streams) == 0 {
		return nil
	}
	return p.streams[len(p.streams)-1]
}

func newTestSequencer(t *testing.T, p *fakePlayer, tracks ...string) (*Sequencer, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	s := New(Options{
		Player:     p,
		Clock:      c,
		Rand:       rand.New(rand.NewPCG(1, 2)),
		CacheDir:   t.TempDir(),
		Tracks:     tracks,
		Volume:     0.5,
		BGMVolume:  0.3,
		FadeWindow: 5 * time.Second,
		StopFade:   time.Second,
	})
	return s, c
}

// ============================================================
// Tone synthesis
// ============================================================

func TestToneSamples(t *testing.T) {
	tests := []struct {
		sessionType pomodoro.SessionType
		freq        float64
		n           int
	}{
		{pomodoro.Focus, 523.25, 35280},
		{pomodoro.Break, 392.00, 26460},
	}
	for _, tt := range tests {
		t.Run(string(tt.sessionType), func(t *testing.T) {
			tone := CueTone(tt.sessionType)
			if tone.Frequency != tt.freq {
				t.Errorf("Frequency = %v, want %v", tone.Frequency, tt.freq)
			}
			samples := tone.Samples()
			if len(samples) != tt.n {
				t.Fatalf("len = %d, want %d", len(samples), tt.n)
			}
			if samples[0] != 0 {
				t.Errorf("first sample = %v, want 0", samples[0])
			}
			peak := 0.0
			for _, s := range samples {
				peak = math.Max(peak, math.Abs(s))
			}
			if peak > 1.3*amplitude || peak < 0.2 {
				t.Errorf("peak = %v", peak)
			}
			if tail := math.Abs(samples[len(samples)-1]); tail > 0.001 {
				t.Errorf("last sample = %v, want near 0", tail)
			}
		})
	}
}

func TestWriteWAV(t *testing.T) {
	var buf bytes.Buffer
	samples := []float64{0, 0.5, -0.5, 1, -2}
	if err := WriteWAV(&buf, samples); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}
	data := buf.Bytes()
	if len(data) != 44+2*len(samples) {
		t.Fatalf("size = %d, want %d", len(data), 44+2*len(samples))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Errorf("bad chunk ids: %q", data[:44])
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d", rate)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != 16 {
		t.Errorf("bits = %d", bits)
	}
	last := int16(binary.LittleEndian.Uint16(data[len(data)-2:]))
	if last != -math.MaxInt16 {
		t.Errorf("clipped sample = %d, want %d", last, -math.MaxInt16)
	}
}

// ============================================================
// Completion cues
// ============================================================

func TestCueFallsBackToTone(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p)
	s.PlayCompletionCue(pomodoro.Focus)

	st := p.last()
	if st == nil {
		t.Fatal("nothing played")
	}
	if filepath.Base(st.path) != "focus-complete.wav" {
		t.Errorf("played %s, want synthesized focus tone", st.path)
	}
	if info, err := os.Stat(st.path); err != nil || info.Size() != 44+2*35280 {
		t.Errorf("tone file: %v %v", info, err)
	}
	if st.volumes[0] != 0.5 {
		t.Errorf("volume = %v, want 0.5", st.volumes[0])
	}
}

func TestCueUsesPreparedFile(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p)
	s.cues = map[pomodoro.SessionType]string{pomodoro.Break: "/sounds/break-complete.mp3"}

	s.PlayCompletionCue(pomodoro.Break)
	if got := p.last().path; got != "/sounds/break-complete.mp3" {
		t.Errorf("played %s", got)
	}
}

func TestCueLoadFailureFallsBack(t *testing.T) {
	p := &fakePlayer{fail: map[string]bool{"/sounds/focus-complete.mp3": true}}
	s, _ := newTestSequencer(t, p)
	s.cues = map[pomodoro.SessionType]string{pomodoro.Focus: "/sounds/focus-complete.mp3"}

	s.PlayCompletionCue(pomodoro.Focus)
	if len(p.streams) != 1 || filepath.Base(p.streams[0].path) != "focus-complete.wav" {
		t.Errorf("streams = %+v, want synthesized fallback", p.streams)
	}
}

func TestPreloadWritesTones(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p)
	s.Preload()
	for _, name := range []string{"focus-complete.wav", "break-complete.wav"} {
		if _, err := os.Stat(filepath.Join(s.cacheDir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if len(p.streams) != 0 {
		t.Error("preload played sound")
	}
}

// ============================================================
// Background music
// ============================================================

func TestBreakFadeScenario(t *testing.T) {
	p := &fakePlayer{}
	s, c := newTestSequencer(t, p, "/bgm/rain.mp3")
	const total = 5 * time.Minute
	const step = 100 * time.Millisecond

	s.StartBGM(total)
	st := p.last()
	if st == nil || st.path != "/bgm/rain.mp3" {
		t.Fatalf("bgm stream = %+v", st)
	}

	prev := s.BGMVolume()
	for elapsed := step; elapsed <= total; elapsed += step {
		c.Advance(step)
		s.UpdateBGM(total - elapsed)
		v := st.volumes[len(st.volumes)-1]
		switch {
		case elapsed < total-5*time.Second:
			if v != 0.3 {
				t.Fatalf("at %v volume = %v, want 0.3 before the fade", elapsed, v)
			}
		case elapsed == total-5*time.Second:
			if v != 0.3 {
				t.Fatalf("fade start volume = %v, want 0.3", v)
			}
		case elapsed == total-2500*time.Millisecond:
			if math.Abs(v-0.15) > 1e-9 {
				t.Fatalf("mid fade volume = %v, want 0.15", v)
			}
		}
		if v > prev {
			t.Fatalf("volume rose from %v to %v at %v", prev, v, elapsed)
		}
		prev = v
	}
	if st.volumes[len(st.volumes)-1] != 0 || !st.stopped {
		t.Errorf("final volume %v stopped=%v, want 0 and stopped", st.volumes[len(st.volumes)-1], st.stopped)
	}
	if s.BGMPlaying() {
		t.Error("bgm still playing after countdown")
	}
}

func TestFadeNeverReverses(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p, "/bgm/a.mp3")
	s.StartBGM(time.Hour)

	s.UpdateBGM(2 * time.Second)
	low := s.BGMVolume()
	s.UpdateBGM(4 * time.Second)
	if s.BGMVolume() != low {
		t.Errorf("volume went from %v to %v", low, s.BGMVolume())
	}
	s.UpdateBGM(time.Minute)
	if s.BGMVolume() != low {
		t.Errorf("fade restarted: %v", s.BGMVolume())
	}
}

func TestStopFadeIsIndependent(t *testing.T) {
	p := &fakePlayer{}
	s, c := newTestSequencer(t, p, "/bgm/a.mp3")
	s.StartBGM(time.Hour)
	st := p.last()

	s.StopBGM()
	if !s.Stopping() {
		t.Fatal("stop fade not started")
	}
	s.UpdateBGM(time.Second)
	if s.BGMVolume() != 0.3 {
		t.Errorf("countdown moved a stopping track: %v", s.BGMVolume())
	}

	c.Advance(500 * time.Millisecond)
	s.Tick()
	if math.Abs(s.BGMVolume()-0.15) > 1e-9 {
		t.Errorf("half way volume = %v, want 0.15", s.BGMVolume())
	}
	c.Advance(500 * time.Millisecond)
	s.Tick()
	if s.BGMPlaying() || !st.stopped {
		t.Error("bgm not stopped after the stop fade")
	}
}

func TestStartBGMCutsStoppingTrack(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p, "/bgm/a.mp3")
	s.StartBGM(time.Hour)
	first := p.last()
	s.StopBGM()
	s.StartBGM(time.Hour)

	if !first.stopped {
		t.Error("old track still playing")
	}
	if s.Stopping() || s.BGMVolume() != 0.3 {
		t.Errorf("new track state: stopping=%v volume=%v", s.Stopping(), s.BGMVolume())
	}
}

func TestTrackLoops(t *testing.T) {
	p := &fakePlayer{}
	s, c := newTestSequencer(t, p, "/bgm/a.mp3")
	s.StartBGM(time.Hour)
	c.Advance(3 * time.Minute)
	p.last().done = true

	s.Tick()
	if len(p.streams) != 2 || p.streams[1].path != "/bgm/a.mp3" {
		t.Errorf("streams = %d, want track restarted", len(p.streams))
	}
}

func TestBrokenTracksDropped(t *testing.T) {
	p := &fakePlayer{fail: map[string]bool{"/bgm/bad.mp3": true}}
	s, c := newTestSequencer(t, p, "/bgm/bad.mp3", "/bgm/short.mp3")
	s.StartBGM(time.Hour)
	if st := p.last(); st == nil || st.path != "/bgm/short.mp3" {
		t.Fatalf("stream = %+v, want the playable track", st)
	}

	// Ends right away: dropped, and nothing is left to play.
	c.Advance(100 * time.Millisecond)
	p.last().done = true
	s.Tick()
	if s.BGMPlaying() || len(s.tracks) != 0 {
		t.Errorf("playing=%v tracks=%v", s.BGMPlaying(), s.tracks)
	}
}

func TestNoTracksIsSilent(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p)
	s.StartBGM(time.Hour)
	s.UpdateBGM(time.Second)
	s.StopBGM()
	s.Tick()
	if len(p.streams) != 0 || s.BGMPlaying() {
		t.Error("bgm played without tracks")
	}
}

func TestFindCuesAndTracks(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"focus-complete.mp3", "break-complete.txt", "rain.ogg", "notes.md", "cafe.WAV"} {
		os.WriteFile(filepath.Join(dir, name), nil, 0o644)
	}
	cues := FindCues(dir)
	if cues[pomodoro.Focus] != filepath.Join(dir, "focus-complete.mp3") {
		t.Errorf("focus cue = %q", cues[pomodoro.Focus])
	}
	if _, ok := cues[pomodoro.Break]; ok {
		t.Error("non-audio break cue accepted")
	}

	tracks := FindTracks(dir)
	want := []string{filepath.Join(dir, "cafe.WAV"), filepath.Join(dir, "focus-complete.mp3"), filepath.Join(dir, "rain.ogg")}
	if len(tracks) != len(want) {
		t.Fatalf("tracks = %v", tracks)
	}
	for i := range want {
		if tracks[i] != want[i] {
			t.Errorf("tracks[%d] = %s, want %s", i, tracks[i], want[i])
		}
	}
}

func TestBellRings(t *testing.T) {
	var buf bytes.Buffer
	st, err := Bell{W: &buf}.Play("", 1)
	if err != nil || !st.Done() {
		t.Fatalf("Play = %v, %v", st, err)
	}
	if buf.String() != "\a" {
		t.Errorf("wrote %q", buf.String())
	}
}

func TestCloseStopsMusicImmediately(t *testing.T) {
	fp := &fakePlayer{}
	s, _ := newTestSequencer(t, fp, "a.mp3")
	s.StartBGM(time.Hour)
	if !s.BGMPlaying() {
		t.Fatal("music should be playing")
	}
	s.Close()
	if s.BGMPlaying() {
		t.Fatal("music should stop without a fade")
	}
	if !fp.last().stopped {
		t.Fatal("stream should be stopped")
	}
}

func TestStartBGMInsideFadeWindow(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p, "/bgm/a.mp3")

	s.StartBGM(3 * time.Second)
	st := p.last()
	if st == nil {
		t.Fatal("nothing played")
	}
	if math.Abs(st.volumes[0]-0.18) > 1e-9 {
		t.Errorf("start volume = %v, want the ramp level 0.18", st.volumes[0])
	}
	s.UpdateBGM(4 * time.Second)
	if s.BGMVolume() > 0.18+1e-9 {
		t.Errorf("fade reversed to %v", s.BGMVolume())
	}
	s.UpdateBGM(time.Second)
	if math.Abs(s.BGMVolume()-0.06) > 1e-9 {
		t.Errorf("volume = %v, want 0.06", s.BGMVolume())
	}
}

func TestStartBGMAtZeroIsSilent(t *testing.T) {
	p := &fakePlayer{}
	s, _ := newTestSequencer(t, p, "/bgm/a.mp3")
	s.StartBGM(0)
	if len(p.streams) != 0 || s.BGMPlaying() {
		t.Error("music started with nothing left of the countdown")
	}
}

func TestMusicUsesItsOwnPlayer(t *testing.T) {
	cues := &fakePlayer{}
	music := &fakePlayer{}
	s := New(Options{
		Player:     cues,
		Music:      music,
		Clock:      clock.NewManual(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
		CacheDir:   t.TempDir(),
		Tracks:     []string{"/bgm/a.mp3"},
		Volume:     0.5,
		BGMVolume:  0.3,
		FadeWindow: 5 * time.Second,
		StopFade:   time.Second,
	})
	s.StartBGM(time.Hour)
	s.PlayCompletionCue(pomodoro.Focus)
	if len(music.streams) != 1 || music.last().path != "/bgm/a.mp3" {
		t.Errorf("music streams = %+v", music.streams)
	}
	if len(cues.streams) != 1 || filepath.Base(cues.last().path) != "focus-complete.wav" {
		t.Errorf("cue streams = %+v", cues.streams)
	}
}
