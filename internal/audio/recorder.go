package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
)

type RecorderConfig struct {
	SampleRate      int
	FramesPerBuffer int
}

type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FramesPerBuffer <= 0 {
		cfg.FramesPerBuffer = DefaultFramesPerBuffer
	}
	return &Recorder{cfg: cfg}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

func (r *Recorder) SampleRate() int { return r.cfg.SampleRate }

// Source returns a fresh microphone source for one capture.
func (r *Recorder) Source() *MicSource {
	return &MicSource{
		sampleRate: r.cfg.SampleRate,
		frameSize:  r.cfg.FramesPerBuffer,
		closed:     make(chan struct{}),
	}
}

// MicSource is a single-use mono input stream on the default device.
type MicSource struct {
	sampleRate int
	frameSize  int

	mu      sync.Mutex
	stream  *portaudio.Stream
	stopped bool

	closed    chan struct{}
	closeOnce sync.Once
}

func (m *MicSource) Start(onFrame func([]float32)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil || m.stopped {
		return fmt.Errorf("mic source already used")
	}

	// portaudio reuses in between callbacks, so each frame is copied.
	cb := func(in []float32) {
		frame := make([]float32, len(in))
		copy(frame, in)
		onFrame(frame)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), m.frameSize, cb)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	m.stream = stream
	log.Debug("Mic stream started", "rate", m.sampleRate, "frame", m.frameSize)
	return nil
}

// Stop halts the stream. Once it returns no further callbacks run.
func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true
	defer m.closeOnce.Do(func() { close(m.closed) })

	if m.stream == nil {
		return nil
	}

	err := m.stream.Stop()
	if cerr := m.stream.Close(); err == nil {
		err = cerr
	}
	return err
}

func (m *MicSource) Closed() <-chan struct{} {
	return m.closed
}

// Mic captures one utterance per call from a fresh MicSource.
type Mic struct {
	Recorder *Recorder
	Listen   ListenConfig
}

func (m Mic) Capture(ctx context.Context) ([]float32, error) {
	return Listen(ctx, m.Recorder.Source(), m.Listen)
}
