// Package assistant runs one voice session: capture an utterance, store it,
// transcribe it, then either launch the configured command or ask the
// language model and speak its reply.
package assistant

import (
	"context"
	"errors"
	"time"

	"parlo/internal/audio"
	"parlo/internal/nlu"
)

var (
	ErrNothingCaptured = audio.ErrNothingCaptured
	ErrCancelled       = audio.ErrCancelled
)

type Capturer interface {
	Capture(ctx context.Context) ([]float32, error)
}

type Sink interface {
	Persist(ctx context.Context, samples []float32) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, text string) (string, error)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

type Launcher interface {
	Launch(ctx context.Context) error
}

type History interface {
	Record(ctx context.Context, out Outcome) error
}

type Publisher interface {
	Publish(ctx context.Context, out Outcome) error
}

type Metrics interface {
	Observe(out Outcome)
}

type Cue interface {
	Play(ctx context.Context) error
}

type Ducker interface {
	Duck(ctx context.Context) error
	Restore(ctx context.Context) error
}

// Deps are the session collaborators. The first six are required; the rest
// are skipped when nil.
type Deps struct {
	Capturer    Capturer
	Sink        Sink
	Transcriber Transcriber
	Generator   Generator
	Speaker     Speaker
	Launcher    Launcher

	History   History
	Publisher Publisher
	Metrics   Metrics
	Cue       Cue
	Ducker    Ducker
}

type Options struct {
	Trigger nlu.Trigger
	// ReportTimeout bounds history and event delivery after a session.
	ReportTimeout time.Duration

	Now   func() time.Time
	NewID func() string
}

// Outcome describes a finished session, successful or not.
type Outcome struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Samples    int           `json:"samples"`
	AudioPath  string        `json:"audio_path,omitempty"`
	Transcript string        `json:"transcript,omitempty"`
	Normalized string        `json:"normalized,omitempty"`
	Route      nlu.Kind      `json:"route"`
	Reply      string        `json:"reply,omitempty"`
	Err        error         `json:"-"`
}

// Status is a short label for logs, metrics and history.
func (o Outcome) Status() string {
	switch {
	case o.Err == nil:
		return "ok"
	case errors.Is(o.Err, ErrNothingCaptured):
		return "empty"
	case errors.Is(o.Err, ErrCancelled):
		return "cancelled"
	default:
		return "error"
	}
}
