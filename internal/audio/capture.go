package audio

import (
	"sync"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	DefaultStartThreshold = 0.01
	DefaultSilenceWindow  = time.Second
)

type CaptureConfig struct {
	// StartThreshold is the RMS level a frame must exceed to count as speech.
	StartThreshold float64
	// SilenceWindow is how long capture keeps going after the last loud frame.
	SilenceWindow time.Duration
}

func (c CaptureConfig) withDefaults() CaptureConfig {
	if c.StartThreshold <= 0 {
		c.StartThreshold = DefaultStartThreshold
	}
	if c.SilenceWindow <= 0 {
		c.SilenceWindow = DefaultSilenceWindow
	}
	return c
}

// Capture is the voice-gated capture state machine. Feed is called by a single
// producer (the audio callback); any goroutine may wait on Done.
type Capture struct {
	cfg CaptureConfig

	mu       sync.Mutex
	state    State
	frames   [][]float32
	lastLoud time.Time

	done     chan struct{}
	doneOnce sync.Once
}

func NewCapture(cfg CaptureConfig) *Capture {
	return &Capture{
		cfg:  cfg.withDefaults(),
		done: make(chan struct{}),
	}
}

// Feed runs one transition for frame observed at now. The frame is retained
// when appended, so callers must not reuse its backing array. It returns false
// once capture has stopped and the source should deliver no more frames.
func (c *Capture) Feed(frame []float32, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateStopped {
		return false
	}

	if Volume(frame) > c.cfg.StartThreshold {
		if c.state == StateIdle {
			c.state = StateRecording
		}
		c.frames = append(c.frames, frame)
		c.lastLoud = now
		return true
	}

	if c.state == StateRecording && !c.lastLoud.IsZero() && now.Sub(c.lastLoud) > c.cfg.SilenceWindow {
		c.state = StateStopped
		c.doneOnce.Do(func() { close(c.done) })
		return false
	}

	return true
}

// Done is closed when the machine reaches StateStopped.
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

func (c *Capture) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Frames reports how many frames have been appended so far.
func (c *Capture) Frames() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Samples concatenates the appended frames in arrival order.
func (c *Capture) Samples() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, f := range c.frames {
		n += len(f)
	}

	out := make([]float32, 0, n)
	for _, f := range c.frames {
		out = append(out, f...)
	}
	return out
}
