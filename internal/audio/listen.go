package audio

import (
	"context"
	"errors"
	log "log/slog"
	"time"
)

var (
	ErrNothingCaptured = errors.New("no audio captured")
	ErrCancelled       = errors.New("capture cancelled")
)

// Source delivers frames by calling onFrame from its own goroutine, in
// arrival order. Closed is closed once no more frames will be delivered.
type Source interface {
	Start(onFrame func([]float32)) error
	Stop() error
	Closed() <-chan struct{}
}

type ListenConfig struct {
	Capture CaptureConfig
	// MaxWait bounds the whole capture; zero waits until silence or the
	// source closes.
	MaxWait time.Duration
	// Now is the clock handed to the state machine. Defaults to time.Now.
	Now func() time.Time
}

// Listen runs a fresh Capture against src until the utterance ends, src
// closes, MaxWait elapses or ctx is cancelled. The source is always stopped
// before Listen returns.
func Listen(ctx context.Context, src Source, cfg ListenConfig) ([]float32, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	c := NewCapture(cfg.Capture)
	started := false

	err := src.Start(func(frame []float32) {
		if !c.Feed(frame, now()) {
			return
		}
		if !started && c.State() == StateRecording {
			started = true
			log.Info("Recording started")
		}
	})
	if err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if cfg.MaxWait > 0 {
		t := time.NewTimer(cfg.MaxWait)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case <-c.Done():
		log.Info("Recording stopped", "frames", c.Frames())
	case <-src.Closed():
		log.Debug("Source closed", "state", c.State())
	case <-timeout:
		log.Warn("Listen timeout", "after", cfg.MaxWait, "state", c.State())
	case <-ctx.Done():
		if err := src.Stop(); err != nil {
			log.Warn("Failed to stop source", "err", err)
		}
		return nil, ErrCancelled
	}

	if err := src.Stop(); err != nil {
		log.Warn("Failed to stop source", "err", err)
	}

	out := c.Samples()
	if len(out) == 0 {
		return nil, ErrNothingCaptured
	}
	return out, nil
}
