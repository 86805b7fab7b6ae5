package audio

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

var audioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".oga":  true,
	".flac": true,
	".m4a":  true,
}

// FindCues looks in dir for focus-complete.* and break-complete.* files.
// Missing cues fall back to synthesized tones.
func FindCues(dir string) map[pomodoro.SessionType]string {
	cues := make(map[pomodoro.SessionType]string)
	if dir == "" {
		return cues
	}
	for _, t := range []pomodoro.SessionType{pomodoro.Focus, pomodoro.Break} {
		matches, _ := filepath.Glob(filepath.Join(dir, string(t)+"-complete.*"))
		sort.Strings(matches)
		for _, m := range matches {
			if audioExts[strings.ToLower(filepath.Ext(m))] {
				cues[t] = m
				break
			}
		}
	}
	return cues
}

// FindTracks lists the audio files directly inside dir, sorted by name.
func FindTracks(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var tracks []string
	for _, e := range entries {
		if e.IsDir() || !audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		tracks = append(tracks, filepath.Join(dir, e.Name()))
	}
	return tracks
}

// DefaultCacheDir is where synthesized cues are written.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "focusflow", "audio")
	}
	return filepath.Join(os.TempDir(), "focusflow-audio")
}
