// Package notify plays short audio cues around a listening session.
package notify

import (
	"context"
	"fmt"
	log "log/slog"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

const DefaultCuePath = "beep.mp3"

var (
	speakerOnce sync.Once
	speakerRate beep.SampleRate
	speakerErr  error
)

// Beeper plays the mp3 at Path. An empty Path disables the cue.
type Beeper struct {
	Path string
}

// Play blocks until the cue has been played or ctx is done.
func (b Beeper) Play(ctx context.Context) error {
	if b.Path == "" {
		return nil
	}

	f, err := os.Open(b.Path)
	if err != nil {
		return fmt.Errorf("open cue: %w", err)
	}

	streamer, format, err := mp3.Decode(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode cue %s: %w", b.Path, err)
	}
	defer streamer.Close()

	if err := initSpeaker(format.SampleRate); err != nil {
		return err
	}

	var s beep.Streamer = streamer
	if format.SampleRate != speakerRate {
		s = beep.Resample(4, format.SampleRate, speakerRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(s, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// The speaker can only be initialised once per process; later cues are
// resampled to the first cue's rate.
func initSpeaker(rate beep.SampleRate) error {
	speakerOnce.Do(func() {
		speakerRate = rate
		speakerErr = speaker.Init(rate, rate.N(time.Second/10))
		if speakerErr == nil {
			log.Debug("Speaker ready", "rate", int(rate))
		}
	})
	if speakerErr != nil {
		return fmt.Errorf("init speaker: %w", speakerErr)
	}
	return nil
}
