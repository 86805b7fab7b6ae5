package audio

import (
	"log"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/pomodoro"
)

// A track that ends sooner than this after starting is treated as
// unplayable and dropped from the pool.
const minTrackRun = time.Second

type Options struct {
	Player Player
	// Music plays the break tracks. It should follow SetVolume while
	// playing so fades are audible; nil uses Player.
	Music Player
	Clock  clock.Clock
	Rand   *rand.Rand

	// Cues maps a session type to a prepared sound file. Missing entries
	// use a synthesized tone written to CacheDir.
	Cues     map[pomodoro.SessionType]string
	CacheDir string
	Tracks   []string

	Volume     float64
	BGMVolume  float64
	FadeWindow time.Duration
	StopFade   time.Duration
}

type bgm struct {
	track     string
	stream    Stream
	startedAt time.Time
	volume    float64
	fading    bool

	stopping bool
	stopAt   time.Time
	stopFrom float64
}

// Sequencer plays completion cues and the break music. It holds no
// goroutines of its own: BGM levels move only when UpdateBGM or Tick is
// called from the event loop. Every failure is logged and otherwise
// ignored.
type Sequencer struct {
	player Player
	music  Player
	clock  clock.Clock
	rng    *rand.Rand

	cues     map[pomodoro.SessionType]string
	cacheDir string
	tracks   []string

	volume     float64
	bgmVolume  float64
	fadeWindow time.Duration
	stopFade   time.Duration

	bgm *bgm
}

func New(opts Options) *Sequencer {
	s := &Sequencer{
		player:     opts.Player,
		music:      opts.Music,
		clock:      opts.Clock,
		rng:        opts.Rand,
		cues:       opts.Cues,
		cacheDir:   opts.CacheDir,
		tracks:     slices.Clone(opts.Tracks),
		volume:     opts.Volume,
		bgmVolume:  opts.BGMVolume,
		fadeWindow: opts.FadeWindow,
		stopFade:   opts.StopFade,
	}
	if s.player == nil {
		s.player = Silent{}
	}
	if s.music == nil {
		s.music = s.player
	}
	if s.clock == nil {
		s.clock = clock.System{}
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.cacheDir == "" {
		s.cacheDir = DefaultCacheDir()
	}
	return s
}

// Preload writes the synthesized cues that have no prepared file, so the
// first completion doesn't pay for it.
func (s *Sequencer) Preload() {
	for _, t := range []pomodoro.SessionType{pomodoro.Focus, pomodoro.Break} {
		if s.cues[t] != "" {
			continue
		}
		if _, err := writeToneFile(s.cacheDir, t); err != nil {
			log.Printf("preload %s cue: %v", t, err)
		}
	}
}

// PlayCompletionCue plays the chime for the end of a session of type t.
func (s *Sequencer) PlayCompletionCue(t pomodoro.SessionType) {
	if path := s.cues[t]; path != "" {
		_, err := s.player.Play(path, s.volume)
		if err == nil {
			return
		}
		log.Printf("play %s cue: %v", t, err)
	}
	path, err := writeToneFile(s.cacheDir, t)
	if err != nil {
		log.Printf("synthesize %s cue: %v", t, err)
		return
	}
	if _, err := s.player.Play(path, s.volume); err != nil {
		log.Printf("play %s tone: %v", t, err)
	}
}

// StartBGM starts a random track from the pool for a break with remaining
// time left. Inside the fade window the track starts at the ramp level and
// keeps fading, so resuming a paused break never raises the level. Music
// still fading out from an earlier stop is cut off.
func (s *Sequencer) StartBGM(remaining time.Duration) {
	if s.bgm != nil {
		s.bgm.stream.Stop()
		s.bgm = nil
	}
	v, fading := s.bgmVolume, false
	if remaining <= s.fadeWindow {
		v, fading = s.rampLevel(remaining), true
		if v <= 0 {
			return
		}
	}
	if s.playTrack(v) {
		s.bgm.fading = fading
	}
}

// rampLevel is the fade level with remaining time left in the window.
func (s *Sequencer) rampLevel(remaining time.Duration) float64 {
	if s.fadeWindow <= 0 || remaining <= 0 {
		return 0
	}
	return s.bgmVolume * float64(remaining) / float64(s.fadeWindow)
}

func (s *Sequencer) playTrack(volume float64) bool {
	for len(s.tracks) > 0 {
		i := s.rng.IntN(len(s.tracks))
		track := s.tracks[i]
		stream, err := s.music.Play(track, volume)
		if err != nil {
			log.Printf("play bgm %s: %v", track, err)
			s.tracks = slices.Delete(s.tracks, i, i+1)
			continue
		}
		s.bgm = &bgm{track: track, stream: stream, startedAt: s.clock.Now(), volume: volume}
		return true
	}
	return false
}

// UpdateBGM follows the countdown. In the last FadeWindow the volume falls
// linearly to reach zero when remaining does. Once the fade has begun the
// level never rises again.
func (s *Sequencer) UpdateBGM(remaining time.Duration) {
	b := s.bgm
	if b == nil || b.stopping {
		return
	}
	if remaining <= s.fadeWindow {
		v := s.rampLevel(remaining)
		if b.fading && v > b.volume {
			v = b.volume
		}
		b.fading = true
		s.setVolume(b, v)
		if v == 0 {
			b.stream.Stop()
			s.bgm = nil
			return
		}
	}
	s.loop()
}

// StopBGM fades the music out over StopFade, independent of any countdown.
func (s *Sequencer) StopBGM() {
	b := s.bgm
	if b == nil || b.stopping {
		return
	}
	if b.volume <= 0 || s.stopFade <= 0 {
		b.stream.Stop()
		s.bgm = nil
		return
	}
	b.stopping = true
	b.stopAt = s.clock.Now()
	b.stopFrom = b.volume
}

// Close stops the music at once. Cues already playing finish on their own.
func (s *Sequencer) Close() {
	if s.bgm != nil {
		s.bgm.stream.Stop()
		s.bgm = nil
	}
}

// Tick advances a stop fade and restarts a finished track.
func (s *Sequencer) Tick() {
	b := s.bgm
	if b == nil {
		return
	}
	if !b.stopping {
		s.loop()
		return
	}
	elapsed := s.clock.Now().Sub(b.stopAt)
	if elapsed >= s.stopFade {
		b.stream.Stop()
		s.bgm = nil
		return
	}
	s.setVolume(b, b.stopFrom*(1-float64(elapsed)/float64(s.stopFade)))
}

func (s *Sequencer) loop() {
	b := s.bgm
	if b == nil || !b.stream.Done() || b.volume <= 0 {
		return
	}
	if s.clock.Now().Sub(b.startedAt) < minTrackRun {
		log.Printf("bgm %s ended early, dropping it", b.track)
		if i := slices.Index(s.tracks, b.track); i >= 0 {
			s.tracks = slices.Delete(s.tracks, i, i+1)
		}
	}
	s.bgm = nil
	if s.playTrack(b.volume) {
		s.bgm.fading = b.fading
	}
}

func (s *Sequencer) setVolume(b *bgm, v float64) {
	if v < 0 {
		v = 0
	}
	b.volume = v
	b.stream.SetVolume(v)
}

// Stopping reports whether a stop fade is in progress and needs ticks.
func (s *Sequencer) Stopping() bool { return s.bgm != nil && s.bgm.stopping }

// BGMPlaying reports whether music is playing or fading out.
func (s *Sequencer) BGMPlaying() bool { return s.bgm != nil }

// BGMVolume is the current music level, zero when nothing plays.
func (s *Sequencer) BGMVolume() float64 {
	if s.bgm == nil {
		return 0
	}
	return s.bgm.volume
}
