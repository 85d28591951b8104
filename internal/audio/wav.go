package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultOutputPath = "recording.wav"
	wavBitDepth       = 16
	wavFormatPCM      = 1
)

// WAVSink writes one captured utterance as a mono 16-bit PCM WAV file.
type WAVSink struct {
	Path       string
	SampleRate int
}

func (s WAVSink) Persist(_ context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", errors.New("no samples to persist")
	}

	path := s.Path
	if path == "" {
		path = DefaultOutputPath
	}
	rate := s.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create dir: %w", err)
		}
	}

	if err := WriteWAV(path, samples, rate); err != nil {
		return "", err
	}
	return path, nil
}

// WriteWAV encodes samples in [-1, 1] to a mono 16-bit PCM file at path.
func WriteWAV(path string, samples []float32, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 1, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           floatToPCM16(samples),
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

func floatToPCM16(in []float32) []int {
	out := make([]int, len(in))
	for i, x := range in {
		v := math.Round(float64(x) * math.MaxInt16)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		}
		if v < math.MinInt16 {
			v = math.MinInt16
		}
		out[i] = int(v)
	}
	return out
}
