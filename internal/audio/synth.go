package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/focusflow/internal/pomodoro"
)

const (
	SampleRate = 44100
	amplitude  = 0.3
)

// Tone is a short chime: a sine at Frequency plus its second harmonic at
// 0.3 of the level, with a 100ms attack and a linear decay to silence.
type Tone struct {
	Frequency float64
	Duration  time.Duration
}

var cueTones = map[pomodoro.SessionType]Tone{
	pomodoro.Focus: {Frequency: 523.25, Duration: 800 * time.Millisecond},
	pomodoro.Break: {Frequency: 392.00, Duration: 600 * time.Millisecond},
}

// CueTone returns the fallback chime for the end of a session of type t.
func CueTone(t pomodoro.SessionType) Tone {
	if tone, ok := cueTones[t]; ok {
		return tone
	}
	return cueTones[pomodoro.Focus]
}

// Samples renders the tone as mono samples in [-1, 1].
func (t Tone) Samples() []float64 {
	d := t.Duration.Seconds()
	n := int(math.Round(d * SampleRate))
	out := make([]float64, n)
	for i := range out {
		x := float64(i) / SampleRate
		env := math.Min(1, x*10) * math.Max(0, 1-x/d)
		fundamental := math.Sin(2 * math.Pi * t.Frequency * x)
		harmonic := 0.3 * math.Sin(2*math.Pi*t.Frequency*2*x)
		out[i] = (fundamental + harmonic) * env * amplitude
	}
	return out
}

type wavHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataSize      uint32
}

// WriteWAV encodes samples as 16-bit mono PCM.
func WriteWAV(w io.Writer, samples []float64) error {
	dataSize := uint32(len(samples) * 2)
	h := wavHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		pcm[i] = int16(math.Round(s * math.MaxInt16))
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// writeToneFile renders the fallback cue for t into dir and returns its
// path. An existing file is reused.
func writeToneFile(dir string, t pomodoro.SessionType) (string, error) {
	path := filepath.Join(dir, string(t)+"-complete.wav")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create tone dir: %w", err)
	}
	f, err := os.CreateTemp(dir, "tone-*.wav")
	if err != nil {
		return "", fmt.Errorf("create tone file: %w", err)
	}
	if err := WriteWAV(f, CueTone(t).Samples()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close tone file: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("install tone file: %w", err)
	}
	return path, nil
}
