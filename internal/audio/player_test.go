package audio

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/focusflow/internal/clock"
)

// scriptPlayer puts an executable named name on PATH that logs its
// arguments to the returned file and then sleeps until killed.
func scriptPlayer(t *testing.T, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\necho \"$@\" >> \"" + logPath + "\"\nexec sleep 30\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logPath
}

// waitCalls polls the log until it holds n invocations.
func waitCalls(t *testing.T, logPath string, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		data, _ := os.ReadFile(logPath)
		calls := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(data) == 0 {
			calls = nil
		}
		if len(calls) >= n || time.Now().After(deadline) {
			if len(calls) != n {
				t.Fatalf("player invocations = %q, want %d", calls, n)
			}
			return calls
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCommandKeepsTrackLast(t *testing.T) {
	p := &ExecPlayer{name: "ffplay"}
	got := p.command("/bgm/a.mp3", 0.5, 90*time.Second, "")
	want := []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", "50", "-ss", "90.00", "/bgm/a.mp3"}
	if !slices.Equal(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}

	m := &ExecPlayer{name: "mpv"}
	got = m.command("/bgm/a.mp3", 0.3, 0, "/tmp/x.sock")
	want = []string{"--no-video", "--really-quiet", "--volume=30", "--input-ipc-server=/tmp/x.sock", "/bgm/a.mp3"}
	if !slices.Equal(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestFindMusicPlayerNeedsLiveVolume(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("player lookup uses plain executable names")
	}
	dir := t.TempDir()
	for _, name := range []string{"paplay", "ffplay"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", dir)

	p, err := FindMusicPlayer("paplay")
	if err != nil {
		t.Fatalf("FindMusicPlayer: %v", err)
	}
	if p.Name() != "ffplay" || !p.LiveVolume() {
		t.Errorf("music player = %s live=%v, want ffplay", p.Name(), p.LiveVolume())
	}

	cue, err := FindPlayer("paplay")
	if err != nil {
		t.Fatalf("FindPlayer: %v", err)
	}
	if cue.LiveVolume() {
		t.Error("paplay reported live volume")
	}
}

func TestFfplayRestartsAtNewLevel(t *testing.T) {
	logPath := scriptPlayer(t, "ffplay")
	p, err := FindPlayer("ffplay")
	if err != nil {
		t.Fatalf("FindPlayer: %v", err)
	}
	st, err := p.Play("/bgm/rain.mp3", 0.3)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	t.Cleanup(st.Stop)

	calls := waitCalls(t, logPath, 1)
	if !strings.Contains(calls[0], "-volume 30 /bgm/rain.mp3") || strings.Contains(calls[0], "-ss") {
		t.Errorf("first call = %q", calls[0])
	}

	st.SetVolume(0.28)
	st.SetVolume(0.24)
	calls = waitCalls(t, logPath, 2)
	if !strings.Contains(calls[1], "-volume 24 -ss ") || !strings.HasSuffix(calls[1], "/bgm/rain.mp3") {
		t.Errorf("restart call = %q, want level 24 from the current position", calls[1])
	}

	st.SetVolume(0.1)
	calls = waitCalls(t, logPath, 3)
	if !strings.Contains(calls[2], "-volume 10 -ss ") {
		t.Errorf("restart call = %q, want level 10", calls[2])
	}
	if st.Done() {
		t.Error("stream ended after a level change")
	}

	st.SetVolume(0)
	deadline := time.Now().Add(3 * time.Second)
	for !st.Done() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !st.Done() {
		t.Error("zero level left the player running")
	}
}

func TestBreakFadeReachesMpv(t *testing.T) {
	logPath := scriptPlayer(t, "mpv")
	p, err := FindPlayer("mpv")
	if err != nil {
		t.Fatalf("FindPlayer: %v", err)
	}
	p.sockDir = t.TempDir()

	s := New(Options{
		Player:     p,
		Clock:      clock.NewManual(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)),
		CacheDir:   t.TempDir(),
		Tracks:     []string{"/bgm/rain.mp3"},
		BGMVolume:  0.6,
		FadeWindow: 5 * time.Second,
		StopFade:   time.Second,
	})
	s.StartBGM(time.Hour)
	t.Cleanup(s.Close)

	calls := waitCalls(t, logPath, 1)
	var sock string
	for _, arg := range strings.Fields(calls[0]) {
		if v, ok := strings.CutPrefix(arg, "--input-ipc-server="); ok {
			sock = v
		}
	}
	if sock == "" || !strings.Contains(calls[0], "--volume=60") {
		t.Fatalf("mpv call = %q", calls[0])
	}

	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatalf("listen on %s: %v", sock, err)
	}
	defer ln.Close()
	levels := make(chan int, 16)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			var msg struct {
				Command []any `json:"command"`
			}
			if json.Unmarshal(sc.Bytes(), &msg) != nil || len(msg.Command) != 3 || msg.Command[1] != "volume" {
				continue
			}
			if v, ok := msg.Command[2].(float64); ok {
				levels <- int(v)
			}
		}
	}()

	for _, left := range []time.Duration{5 * time.Second, 4 * time.Second, 2500 * time.Millisecond, time.Second, 100 * time.Millisecond} {
		s.UpdateBGM(left)
	}
	for _, want := range []int{48, 30, 12, 1} {
		select {
		case got := <-levels:
			if got != want {
				t.Fatalf("mpv volume = %d, want %d", got, want)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("mpv never received volume %d", want)
		}
	}
	waitCalls(t, logPath, 1)
}
