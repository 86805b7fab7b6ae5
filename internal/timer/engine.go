package timer

import (
	"encoding/json"
	"log"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
)

// StorageKey is the local_state key the countdown snapshot lives under.
const StorageKey = "focusflow-timer-state"

// DefaultTickInterval is the cadence the UI schedules ticks at. Drift after a
// suspend is bounded by one interval because ticks use wall-clock deltas.
const DefaultTickInterval = 100 * time.Millisecond

type Status int

const (
	Idle Status = iota
	Running
	Paused
	Completed
)

var statusNames = map[Status]string{
	Idle:      "idle",
	Running:   "running",
	Paused:    "paused",
	Completed: "completed",
}

func (s Status) String() string { return statusNames[s] }

// State is the persisted countdown snapshot.
type State struct {
	TimeLeftMs int64 `json:"timeLeftMs"`
	IsRunning  bool  `json:"isRunning"`
}

// StateStore is durable key/value storage. Get returns nil, nil for a
// missing key.
type StateStore interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
}

// Handle identifies one scheduled tick stream. Start hands out a fresh
// handle; Pause, Stop and completion revoke it, so ticks still in flight for
// an old handle are ignored.
type Handle uint64

type Options struct {
	Duration   time.Duration
	Clock      clock.Clock
	Store      StateStore
	OnComplete func()
	OnTick     func(timeLeft time.Duration)
}

// Engine is a fixed-duration countdown. It is not safe for concurrent use;
// every call is expected to come from the UI event loop.
type Engine struct {
	clock clock.Clock
	store StateStore

	duration time.Duration
	timeLeft time.Duration
	status   Status
	lastTick time.Time

	handle Handle
	issued Handle

	onComplete func()
	onTick     func(time.Duration)
}

// New builds an engine and restores the last persisted snapshot.
//
// Restart policy: a snapshot saved while running comes back Paused at the
// saved time left. Nothing ticks until Start is called again, so time spent
// while the process was down is never counted against the countdown.
func New(opts Options) *Engine {
	c := opts.Clock
	if c == nil {
		c = clock.System{}
	}
	e := &Engine{
		clock:      c,
		store:      opts.Store,
		duration:   opts.Duration,
		timeLeft:   opts.Duration,
		onComplete: opts.OnComplete,
		onTick:     opts.OnTick,
	}
	e.restore()
	return e
}

func (e *Engine) restore() {
	if e.store == nil {
		return
	}
	data, err := e.store.GetState(StorageKey)
	if err != nil || data == nil {
		return
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return
	}
	left := time.Duration(st.TimeLeftMs) * time.Millisecond
	// Zero means the last run finished; anything longer than the current
	// duration was saved for a different duration. Both start fresh.
	if left <= 0 || left > e.duration {
		return
	}
	e.timeLeft = left
	if left < e.duration || st.IsRunning {
		e.status = Paused
	}
	if st.IsRunning {
		e.save()
	}
}

// SetCallbacks replaces the completion and tick callbacks.
func (e *Engine) SetCallbacks(onComplete func(), onTick func(time.Duration)) {
	e.onComplete = onComplete
	e.onTick = onTick
}

// Start begins or resumes the countdown and returns the handle ticks must
// carry. Calling Start while running returns the current handle.
func (e *Engine) Start() Handle {
	if e.status == Running {
		return e.handle
	}
	if e.status == Completed || e.timeLeft <= 0 {
		e.timeLeft = e.duration
	}
	e.status = Running
	e.lastTick = e.clock.Now()
	e.issued++
	e.handle = e.issued
	e.save()
	return e.handle
}

// Pause freezes the countdown. It is a no-op unless running.
func (e *Engine) Pause() {
	if e.status != Running {
		return
	}
	e.advance()
	if e.timeLeft == 0 {
		e.complete()
		return
	}
	e.status = Paused
	e.handle = 0
	e.save()
}

// Stop returns to Idle with the full duration from any state.
func (e *Engine) Stop() {
	e.status = Idle
	e.timeLeft = e.duration
	e.handle = 0
	e.save()
}

func (e *Engine) Reset() { e.Stop() }

// SetDuration changes the nominal duration. Outside a run (idle or
// completed) the countdown is reset to it; a running or paused run keeps its
// time left and the new duration applies from the next reset.
func (e *Engine) SetDuration(d time.Duration) {
	e.duration = d
	if e.status == Idle || e.status == Completed {
		e.status = Idle
		e.timeLeft = d
		e.save()
	}
}

// Tick advances the countdown by the wall-clock time since the previous
// tick. It reports whether another tick should be scheduled for h.
func (e *Engine) Tick(h Handle) bool {
	if h == 0 || h != e.handle || e.status != Running {
		return false
	}
	e.advance()
	if e.timeLeft == 0 {
		e.complete()
		return false
	}
	e.save()
	if e.onTick != nil {
		e.onTick(e.timeLeft)
	}
	return true
}

func (e *Engine) advance() {
	now := e.clock.Now()
	delta := now.Sub(e.lastTick)
	if delta < 0 {
		delta = 0
	}
	e.lastTick = now
	e.timeLeft -= delta
	if e.timeLeft < 0 {
		e.timeLeft = 0
	}
}

func (e *Engine) complete() {
	e.status = Completed
	e.timeLeft = 0
	e.handle = 0
	e.save()
	if e.onComplete != nil {
		e.onComplete()
	}
}

func (e *Engine) save() {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(e.Snapshot())
	if err != nil {
		log.Printf("encode timer state: %v", err)
		return
	}
	if err := e.store.PutState(StorageKey, data); err != nil {
		log.Printf("save timer state: %v", err)
	}
}

func (e *Engine) Snapshot() State {
	return State{
		TimeLeftMs: e.timeLeft.Milliseconds(),
		IsRunning:  e.status == Running,
	}
}

func (e *Engine) TimeLeft() time.Duration { return e.timeLeft }
func (e *Engine) Duration() time.Duration { return e.duration }
func (e *Engine) Status() Status          { return e.status }
func (e *Engine) Running() bool           { return e.status == Running }
func (e *Engine) Handle() Handle          { return e.handle }

// Progress is the elapsed fraction of the current run in [0, 1].
func (e *Engine) Progress() float64 {
	if e.duration <= 0 {
		return 0
	}
	p := 1 - float64(e.timeLeft)/float64(e.duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
