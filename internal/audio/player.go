package audio

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"
)

// Player starts playback of a sound file. Play must not block until the
// sound ends.
type Player interface {
	Play(path string, volume float64) (Stream, error)
}

// Stream is one playing sound.
type Stream interface {
	Done() bool
	Stop()
	// SetVolume changes the level in [0, 1]. Zero stops the stream.
	SetVolume(v float64)
}

// restartStep is the smallest level change, in percent, that makes a
// player without a control channel restart at the new level.
const restartStep = 5

// ipcTimeout bounds every write to an mpv control socket.
const ipcTimeout = 100 * time.Millisecond

type playerSpec struct {
	args func(path string, v float64) []string
	// seek gives the flags that start playback at offset. Players that can
	// seek follow volume changes by restarting.
	seek func(offset time.Duration) []string
	// ipc marks players that take an mpv JSON IPC socket.
	ipc bool
}

// liveVolume reports whether a running stream can follow a fade.
func (p playerSpec) liveVolume() bool { return p.ipc || p.seek != nil }

var playerSpecs = map[string]playerSpec{
	"paplay": {
		args: func(path string, v float64) []string {
			return []string{"--volume=" + strconv.Itoa(int(v*65536)), path}
		},
	},
	"afplay": {
		args: func(path string, v float64) []string {
			return []string{"-v", strconv.FormatFloat(v, 'f', 2, 64), path}
		},
	},
	"mpv": {
		args: func(path string, v float64) []string {
			return []string{"--no-video", "--really-quiet", "--volume=" + strconv.Itoa(percent(v)), path}
		},
		ipc: true,
	},
	"ffplay": {
		args: func(path string, v float64) []string {
			return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(percent(v)), path}
		},
		seek: func(offset time.Duration) []string {
			return []string{"-ss", strconv.FormatFloat(offset.Seconds(), 'f', 2, 64)}
		},
	},
	"aplay": {
		args: func(path string, v float64) []string {
			return []string{"-q", path}
		},
	},
}

var playerOrder = []string{"paplay", "afplay", "mpv", "ffplay", "aplay"}

func percent(v float64) int { return int(math.Round(v * 100)) }

var socketSeq atomic.Int64

// ExecPlayer plays files by running an external command line player.
type ExecPlayer struct {
	name    string
	path    string
	sockDir string
}

// FindPlayer looks for a usable player on PATH. A non-empty name restricts
// the search to that player.
func FindPlayer(name string) (*ExecPlayer, error) {
	candidates := playerOrder
	if name != "" {
		if _, ok := playerSpecs[name]; !ok {
			return nil, fmt.Errorf("unsupported audio player %q", name)
		}
		candidates = []string{name}
	}
	return findIn(candidates)
}

// FindMusicPlayer looks for a player whose volume can follow a fade while
// it plays. preferred is tried first when it qualifies.
func FindMusicPlayer(preferred string) (*ExecPlayer, error) {
	var candidates []string
	if playerSpecs[preferred].liveVolume() {
		candidates = append(candidates, preferred)
	}
	for _, c := range playerOrder {
		if c != preferred && playerSpecs[c].liveVolume() {
			candidates = append(candidates, c)
		}
	}
	return findIn(candidates)
}

func findIn(candidates []string) (*ExecPlayer, error) {
	for _, c := range candidates {
		if p, err := exec.LookPath(c); err == nil {
			return &ExecPlayer{name: c, path: p, sockDir: os.TempDir()}, nil
		}
	}
	return nil, fmt.Errorf("no audio player found (tried %v)", candidates)
}

func (p *ExecPlayer) Name() string { return p.name }

// LiveVolume reports whether streams from p follow SetVolume while playing.
func (p *ExecPlayer) LiveVolume() bool { return playerSpecs[p.name].liveVolume() }

func (p *ExecPlayer) Play(path string, volume float64) (Stream, error) {
	s := &procStream{player: p, track: path}
	if playerSpecs[p.name].ipc {
		s.sock = filepath.Join(p.sockDir, fmt.Sprintf("focusflow-mpv-%d-%d.sock", os.Getpid(), socketSeq.Add(1)))
	}
	if err := s.start(volume, 0); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *ExecPlayer) command(track string, v float64, offset time.Duration, sock string) []string {
	spec := playerSpecs[p.name]
	args := spec.args(track, v)
	var extra []string
	if offset > 0 && spec.seek != nil {
		extra = append(extra, spec.seek(offset)...)
	}
	if sock != "" {
		extra = append(extra, "--input-ipc-server="+sock)
	}
	// The track stays last.
	out := append([]string{}, args[:len(args)-1]...)
	out = append(out, extra...)
	return append(out, track)
}

// procStream is one track played by an external process. Only the event
// loop touches its fields; the wait goroutine closes the done channel it
// was given.
type procStream struct {
	player *ExecPlayer
	track  string
	sock   string

	cmd     *exec.Cmd
	done    chan struct{}
	level   int
	offset  time.Duration
	started time.Time

	ctl net.Conn
}

func (s *procStream) start(v float64, offset time.Duration) error {
	cmd := exec.Command(s.player.path, s.player.command(s.track, v, offset, s.sock)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.player.name, err)
	}
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()
	s.cmd = cmd
	s.done = done
	s.level = percent(v)
	s.offset = offset
	s.started = time.Now()
	return nil
}

func (s *procStream) Done() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *procStream) Stop() {
	if s.cmd != nil && !s.Done() {
		s.cmd.Process.Kill()
	}
	if s.ctl != nil {
		s.ctl.Close()
		s.ctl = nil
	}
	if s.sock != "" {
		os.Remove(s.sock)
	}
}

// SetVolume sends the level to mpv over its control socket. Players that
// can seek are restarted at the new level from the current position once
// the level has moved by restartStep. Others keep their start level.
func (s *procStream) SetVolume(v float64) {
	level := percent(v)
	if level <= 0 {
		s.Stop()
		return
	}
	if level == s.level || s.Done() {
		return
	}
	spec := playerSpecs[s.player.name]
	switch {
	case spec.ipc:
		if err := s.sendVolume(level); err != nil {
			log.Printf("set %s volume: %v", s.player.name, err)
			return
		}
		s.level = level
	case spec.seek != nil:
		if abs(level-s.level) < restartStep {
			return
		}
		pos := s.offset + time.Since(s.started)
		if s.cmd != nil {
			s.cmd.Process.Kill()
		}
		if err := s.start(v, pos); err != nil {
			log.Printf("restart %s: %v", s.player.name, err)
		}
	}
}

type mpvCommand struct {
	Command []any `json:"command"`
}

// sendVolume connects lazily: mpv creates the socket a moment after it
// starts, so an early attempt fails and the next level change retries.
func (s *procStream) sendVolume(level int) error {
	if s.ctl == nil {
		conn, err := net.DialTimeout("unix", s.sock, ipcTimeout)
		if err != nil {
			return err
		}
		// Replies are not needed.
		go io.Copy(io.Discard, conn)
		s.ctl = conn
	}
	data, err := json.Marshal(mpvCommand{Command: []any{"set_property", "volume", level}})
	if err != nil {
		return err
	}
	s.ctl.SetWriteDeadline(time.Now().Add(ipcTimeout))
	if _, err := s.ctl.Write(append(data, '\n')); err != nil {
		s.ctl.Close()
		s.ctl = nil
		return err
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Bell rings the terminal bell instead of playing files.
type Bell struct {
	W io.Writer
}

func (b Bell) Play(string, float64) (Stream, error) {
	if _, err := io.WriteString(b.W, "\a"); err != nil {
		return nil, fmt.Errorf("ring bell: %w", err)
	}
	return doneStream{}, nil
}

// Silent discards every sound.
type Silent struct{}

func (Silent) Play(string, float64) (Stream, error) { return doneStream{}, nil }

type doneStream struct{}

func (doneStream) Done() bool        { return true }
func (doneStream) Stop()             {}
func (doneStream) SetVolume(float64) {}
