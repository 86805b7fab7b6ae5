package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/focusflow/internal/session"
	"github.com/sadopc/focusflow/internal/timer"
)

// bgmTicker is the part of the audio sequencer that needs ticks from the
// event loop.
type bgmTicker interface {
	Tick()
	Stopping() bool
	BGMPlaying() bool
}

// clockModel owns tick scheduling for the countdown and the music, and turns
// queued session jobs into commands.
type clockModel struct {
	ctrl     *session.Controller
	queue    *session.Queue
	audio    bgmTicker
	interval time.Duration

	audioTicking bool
}

func newClockModel(ctrl *session.Controller, q *session.Queue, audio bgmTicker, interval time.Duration) clockModel {
	if interval <= 0 {
		interval = timer.DefaultTickInterval
	}
	return clockModel{ctrl: ctrl, queue: q, audio: audio, interval: interval}
}

func (c clockModel) tickCmd(h timer.Handle) tea.Cmd {
	if h == 0 {
		return nil
	}
	return tea.Tick(c.interval, func(time.Time) tea.Msg {
		return tickMsg{handle: h}
	})
}

// start starts or resumes the countdown. A tick stream is only scheduled
// when the timer wasn't already running, so there is one stream per run.
func (c *clockModel) start() tea.Cmd {
	if c.ctrl.Running() {
		return nil
	}
	return c.tickCmd(c.ctrl.Start())
}

func (c *clockModel) toggle() tea.Cmd {
	if c.ctrl.Running() {
		c.ctrl.Pause()
		return nil
	}
	return c.start()
}

// tick advances the countdown for msg and reports whether the run finished
// on this tick.
func (c *clockModel) tick(msg tickMsg) (tea.Cmd, bool) {
	before := c.ctrl.SessionType()
	if c.ctrl.Tick(msg.handle) {
		return c.tickCmd(msg.handle), false
	}
	return nil, c.ctrl.SessionType() != before
}

// audioCmd schedules the next audio tick when music needs one and none is
// pending.
func (c *clockModel) audioCmd() tea.Cmd {
	if c.audio == nil || c.audioTicking {
		return nil
	}
	if !c.audio.BGMPlaying() && !c.audio.Stopping() {
		return nil
	}
	c.audioTicking = true
	return tea.Tick(c.interval, func(time.Time) tea.Msg {
		return audioTickMsg{}
	})
}

func (c *clockModel) audioTick() tea.Cmd {
	c.audioTicking = false
	if c.audio != nil {
		c.audio.Tick()
	}
	return c.audioCmd()
}

// jobs turns everything the controller queued into commands. Each command
// runs the network call off the loop and returns its result as a message.
func (c *clockModel) jobs() tea.Cmd {
	if c.queue == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, job := range c.queue.Take() {
		cmds = append(cmds, func() tea.Msg {
			return jobDoneMsg{apply: job(context.Background())}
		})
	}
	return tea.Batch(cmds...)
}
