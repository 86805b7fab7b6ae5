package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
	"github.com/sadopc/focusflow/internal/pomodoro"
	"github.com/sadopc/focusflow/internal/store"
	"github.com/sadopc/focusflow/internal/timer"
)

// Cues is the audio surface the controller drives.
type Cues interface {
	PlayCompletionCue(t pomodoro.SessionType)
	// StartBGM starts break music for a countdown with remaining time left.
	StartBGM(remaining time.Duration)
	UpdateBGM(remaining time.Duration)
	StopBGM()
}

// HistoryRecorder journals finished runs locally.
type HistoryRecorder interface {
	RecordHistory(e store.HistoryEntry) (*store.HistoryEntry, error)
}

type Options struct {
	Sessions pomodoro.SessionService
	Store    timer.StateStore
	History  HistoryRecorder
	Audio    Cues
	Runner   Runner
	Clock    clock.Clock

	FocusMinutes int
	BreakMinutes int
	BreakBGM     bool

	// OnError receives failures of background calls after they are logged.
	OnError func(op string, err error)
}

// run is one countdown from start to a terminal outcome. Jobs keep a pointer
// to the run they were started for, so late results can see how it ended.
type run struct {
	sessionType pomodoro.SessionType
	planned     time.Duration
	taskID      *int64
	taskTitle   string

	sessionID *int64
	creating  bool

	outcome  pomodoro.SessionState // empty while the run is live
	endedAt  time.Time
	pausedAt time.Time
	pausedMs int64
}

// Controller ties the timer engine to the session service, the daily
// counter and the audio cues. Like the engine it must only be used from one
// goroutine.
type Controller struct {
	clock    clock.Clock
	sessions pomodoro.SessionService
	store    timer.StateStore
	history  HistoryRecorder
	audio    Cues
	runner   Runner
	onError  func(string, error)

	timer *timer.Engine
	life  Lifecycle
	run   *run

	focusMinutes int
	breakMinutes int
	breakBGM     bool
	bgmPlaying   bool

	stats  *pomodoro.TodayStats
	active *pomodoro.Session
}

func New(opts Options) *Controller {
	c := &Controller{
		clock:        opts.Clock,
		sessions:     opts.Sessions,
		store:        opts.Store,
		history:      opts.History,
		audio:        opts.Audio,
		runner:       opts.Runner,
		onError:      opts.OnError,
		focusMinutes: opts.FocusMinutes,
		breakMinutes: opts.BreakMinutes,
		breakBGM:     opts.BreakBGM,
	}
	if c.clock == nil {
		c.clock = clock.System{}
	}
	if c.runner == nil {
		c.runner = Inline{}
	}
	if c.focusMinutes <= 0 {
		c.focusMinutes = 25
	}
	if c.breakMinutes <= 0 {
		c.breakMinutes = 5
	}

	c.life = loadLifecycle(c.store)
	c.timer = timer.New(timer.Options{
		Duration:   c.durationFor(c.life.SessionType),
		Clock:      c.clock,
		Store:      c.store,
		OnComplete: c.handleComplete,
		OnTick:     c.handleTick,
	})

	// A restored paused run keeps its session; paused time counts from now
	// since the time spent while the process was down is unknown.
	if c.timer.Status() == timer.Paused {
		c.run = &run{
			sessionType: c.life.SessionType,
			planned:     c.timer.Duration(),
			taskID:      c.life.CurrentTaskID,
			taskTitle:   c.life.CurrentTaskTitle,
			sessionID:   c.life.CurrentSessionID,
			pausedAt:    c.clock.Now(),
		}
	}
	return c
}

func (c *Controller) durationFor(t pomodoro.SessionType) time.Duration {
	if t == pomodoro.Break {
		return time.Duration(c.breakMinutes) * time.Minute
	}
	return time.Duration(c.focusMinutes) * time.Minute
}

func (c *Controller) minutesFor(t pomodoro.SessionType) int {
	if t == pomodoro.Break {
		return c.breakMinutes
	}
	return c.focusMinutes
}

func (c *Controller) save() { saveLifecycle(c.store, c.life) }

func (c *Controller) fail(op string, err error) {
	log.Printf("%s: %v", op, err)
	if c.onError != nil {
		c.onError(op, err)
	}
}

// Start begins a new run or resumes a paused one and returns the handle the
// caller must attach to ticks. The countdown starts right away; the remote
// session is created in the background when there is no current one.
func (c *Controller) Start() timer.Handle {
	status := c.timer.Status()
	if status == timer.Running {
		return c.timer.Handle()
	}
	now := c.clock.Now()
	if c.run == nil || status == timer.Idle || status == timer.Completed {
		c.run = &run{
			sessionType: c.life.SessionType,
			planned:     c.durationFor(c.life.SessionType),
			taskID:      c.life.CurrentTaskID,
			taskTitle:   c.life.CurrentTaskTitle,
			sessionID:   c.life.CurrentSessionID,
		}
	} else if !c.run.pausedAt.IsZero() {
		c.run.pausedMs += now.Sub(c.run.pausedAt).Milliseconds()
		c.run.pausedAt = time.Time{}
	}

	h := c.timer.Start()
	if c.run.sessionID == nil && !c.run.creating {
		c.createSession(c.run)
	}
	if c.run.sessionType == pomodoro.Break {
		c.startBGM()
	}
	return h
}

// Pause freezes the countdown. The remote session stays active.
func (c *Controller) Pause() {
	if !c.timer.Running() {
		return
	}
	c.timer.Pause()
	if c.timer.Status() != timer.Paused {
		return
	}
	if c.run != nil {
		c.run.pausedAt = c.clock.Now()
	}
	c.stopBGM()
}

// Toggle pauses a running countdown and starts anything else.
func (c *Controller) Toggle() timer.Handle {
	if c.timer.Running() {
		c.Pause()
		return 0
	}
	return c.Start()
}

// Stop abandons the current run: the remote session is cancelled, the
// current id cleared and the timer reset to the full duration.
func (c *Controller) Stop() {
	status := c.timer.Status()
	if r := c.run; r != nil && r.outcome == "" && (status == timer.Running || status == timer.Paused) {
		r.outcome = pomodoro.StateCancelled
		r.endedAt = c.clock.Now()
		if !r.pausedAt.IsZero() {
			r.pausedMs += r.endedAt.Sub(r.pausedAt).Milliseconds()
			r.pausedAt = time.Time{}
		}
		c.record(r, c.timer.TimeLeft())
	}
	if id := c.life.CurrentSessionID; id != nil {
		c.cancelSession(*id)
		c.life.CurrentSessionID = nil
		c.save()
	}
	c.run = nil
	c.timer.Stop()
	c.stopBGM()
}

// SkipBreak abandons a break and switches back to focus.
func (c *Controller) SkipBreak() bool {
	if c.life.SessionType != pomodoro.Break {
		return false
	}
	c.Stop()
	c.life.SessionType = pomodoro.Focus
	c.save()
	c.timer.SetDuration(c.durationFor(pomodoro.Focus))
	return true
}

// Tick forwards a tick to the engine and reports whether another should be
// scheduled for h.
func (c *Controller) Tick(h timer.Handle) bool {
	return c.timer.Tick(h)
}

func (c *Controller) handleTick(left time.Duration) {
	if c.bgmPlaying && c.audio != nil {
		c.audio.UpdateBGM(left)
	}
}

func (c *Controller) handleComplete() {
	now := c.clock.Now()
	r := c.run
	if r == nil {
		r = &run{
			sessionType: c.life.SessionType,
			planned:     c.timer.Duration(),
			taskID:      c.life.CurrentTaskID,
			taskTitle:   c.life.CurrentTaskTitle,
			sessionID:   c.life.CurrentSessionID,
		}
	}
	r.outcome = pomodoro.StateCompleted
	r.endedAt = now

	if id := c.life.CurrentSessionID; id != nil {
		c.completeSession(*id, r)
		c.life.CurrentSessionID = nil
	}
	if r.sessionType == pomodoro.Focus {
		counter := DailyCounter{Completed: c.life.CompletedToday, LastResetDate: c.life.LastResetDate}
		counter.Increment(now)
		c.life.CompletedToday = counter.Completed
		c.life.LastResetDate = counter.LastResetDate
	}
	c.life.SessionType = r.sessionType.Other()
	c.save()
	c.run = nil
	c.timer.SetDuration(c.durationFor(c.life.SessionType))

	if c.bgmPlaying && c.audio != nil {
		c.audio.UpdateBGM(0)
	}
	c.stopBGM()
	if c.audio != nil {
		c.audio.PlayCompletionCue(r.sessionType)
	}
	c.record(r, 0)
}

func (c *Controller) startBGM() {
	if !c.breakBGM || c.audio == nil || c.bgmPlaying {
		return
	}
	c.audio.StartBGM(c.timer.TimeLeft())
	c.bgmPlaying = true
}

func (c *Controller) stopBGM() {
	if !c.bgmPlaying || c.audio == nil {
		return
	}
	c.audio.StopBGM()
	c.bgmPlaying = false
}

func (c *Controller) record(r *run, left time.Duration) {
	if c.history == nil {
		return
	}
	focused := r.planned - left
	if focused < 0 {
		focused = 0
	}
	_, err := c.history.RecordHistory(store.HistoryEntry{
		RemoteID:       r.sessionID,
		TaskID:         r.taskID,
		TaskTitle:      r.taskTitle,
		SessionType:    r.sessionType,
		Outcome:        r.outcome,
		PlannedSeconds: int64(r.planned / time.Second),
		FocusedSeconds: int64(focused / time.Second),
		PausedMs:       r.pausedMs,
		EndedAt:        r.endedAt,
	})
	if err != nil {
		log.Printf("record history: %v", err)
	}
}

// SelectTask attaches a task to the next session created. A nil id clears
// the selection.
func (c *Controller) SelectTask(id *int64, title string) {
	c.life.CurrentTaskID = id
	c.life.CurrentTaskTitle = title
	if id == nil {
		c.life.CurrentTaskTitle = ""
	}
	c.save()
}

// SetDurations changes the focus and break lengths. A countdown in
// progress keeps its time left.
func (c *Controller) SetDurations(focusMinutes, breakMinutes int) {
	if focusMinutes > 0 {
		c.focusMinutes = focusMinutes
	}
	if breakMinutes > 0 {
		c.breakMinutes = breakMinutes
	}
	c.timer.SetDuration(c.durationFor(c.life.SessionType))
}

// SetOnError replaces the background failure callback.
func (c *Controller) SetOnError(fn func(op string, err error)) { c.onError = fn }

func (c *Controller) SetBreakBGM(on bool) {
	c.breakBGM = on
	if !on {
		c.stopBGM()
	} else if c.timer.Running() && c.life.SessionType == pomodoro.Break {
		c.startBGM()
	}
}

// Remote calls. Each runs through the runner and applies its result on the
// controller's goroutine.

func (c *Controller) createSession(r *run) {
	if c.sessions == nil {
		return
	}
	r.creating = true
	in := pomodoro.SessionCreate{
		TaskID:          r.taskID,
		SessionType:     r.sessionType,
		DurationMinutes: c.minutesFor(r.sessionType),
	}
	c.runner.Go(func(ctx context.Context) func() {
		s, err := c.sessions.CreateSession(ctx, in)
		return func() {
			r.creating = false
			if err != nil {
				c.fail("create session", err)
				return
			}
			id := s.ID
			r.sessionID = &id
			switch r.outcome {
			case pomodoro.StateCancelled:
				c.cancelSession(id)
				return
			case pomodoro.StateCompleted:
				c.completeSession(id, r)
				return
			}
			c.life.CurrentSessionID = &id
			c.save()
			c.activateSession(id, c.clock.Now())
		}
	})
}

func (c *Controller) activateSession(id int64, startedAt time.Time) {
	c.update("activate session", id, pomodoro.SessionUpdate{
		State:     pomodoro.Ptr(pomodoro.StateActive),
		StartedAt: &startedAt,
	}, nil)
}

func (c *Controller) completeSession(id int64, r *run) {
	endedAt := r.endedAt
	c.update("complete session", id, pomodoro.SessionUpdate{
		State:            pomodoro.Ptr(pomodoro.StateCompleted),
		CompletedAt:      &endedAt,
		PausedDurationMs: pomodoro.Ptr(r.pausedMs),
	}, c.RefreshStats)
}

func (c *Controller) cancelSession(id int64) {
	c.update("cancel session", id, pomodoro.SessionUpdate{
		State: pomodoro.Ptr(pomodoro.StateCancelled),
	}, nil)
}

func (c *Controller) update(op string, id int64, in pomodoro.SessionUpdate, then func()) {
	if c.sessions == nil {
		return
	}
	c.runner.Go(func(ctx context.Context) func() {
		_, err := c.sessions.UpdateSession(ctx, id, in)
		return func() {
			if err != nil {
				c.fail(op, err)
				return
			}
			if then != nil {
				then()
			}
		}
	})
}

// RefreshStats reloads today's totals from the session service.
func (c *Controller) RefreshStats() {
	if c.sessions == nil {
		return
	}
	c.runner.Go(func(ctx context.Context) func() {
		stats, err := c.sessions.TodayStats(ctx)
		return func() {
			if err != nil {
				c.fail("today stats", err)
				return
			}
			c.stats = stats
		}
	})
}

// Reconcile checks a restored current session against the service. A
// session that is gone or already terminal is forgotten; one left over
// without a run to resume is cancelled. With no current session the
// service's active session is fetched for display only.
func (c *Controller) Reconcile() {
	if c.sessions == nil {
		return
	}
	c.RefreshStats()

	id := c.life.CurrentSessionID
	if id == nil {
		c.runner.Go(func(ctx context.Context) func() {
			s, err := c.sessions.ActiveSession(ctx)
			return func() {
				if err != nil {
					c.fail("active session", err)
					return
				}
				c.active = s
			}
		})
		return
	}

	want := *id
	c.runner.Go(func(ctx context.Context) func() {
		s, err := c.sessions.GetSession(ctx, want)
		return func() {
			cur := c.life.CurrentSessionID
			if cur == nil || *cur != want {
				return
			}
			switch {
			case errors.Is(err, pomodoro.ErrNotFound):
			case err != nil:
				c.fail("reconcile session", err)
				return
			case s.State.Terminal():
			case c.timer.Status() == timer.Idle || c.timer.Status() == timer.Completed:
				c.cancelSession(want)
			default:
				c.active = s
				return
			}
			c.life.CurrentSessionID = nil
			if c.run != nil {
				c.run.sessionID = nil
			}
			c.save()
		}
	})
}

func (c *Controller) TimeLeft() time.Duration           { return c.timer.TimeLeft() }
func (c *Controller) Duration() time.Duration           { return c.timer.Duration() }
func (c *Controller) Status() timer.Status              { return c.timer.Status() }
func (c *Controller) Running() bool                     { return c.timer.Running() }
func (c *Controller) Handle() timer.Handle              { return c.timer.Handle() }
func (c *Controller) Progress() float64                 { return c.timer.Progress() }
func (c *Controller) SessionType() pomodoro.SessionType { return c.life.SessionType }
func (c *Controller) CompletedToday() int               { return c.life.CompletedToday }
func (c *Controller) CurrentSessionID() *int64          { return c.life.CurrentSessionID }
func (c *Controller) CurrentTaskID() *int64             { return c.life.CurrentTaskID }
func (c *Controller) CurrentTaskTitle() string          { return c.life.CurrentTaskTitle }
func (c *Controller) Stats() *pomodoro.TodayStats       { return c.stats }
func (c *Controller) ActiveSession() *pomodoro.Session  { return c.active }
func (c *Controller) FocusMinutes() int                 { return c.focusMinutes }
func (c *Controller) BreakMinutes() int                 { return c.breakMinutes }
func (c *Controller) Lifecycle() Lifecycle              { return c.life }
