package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/google/uuid"

	"parlo/internal/nlu"
)

type Session struct {
	deps Deps
	opts Options
}

func New(deps Deps, opts Options) (*Session, error) {
	switch {
	case deps.Capturer == nil:
		return nil, errors.New("assistant: capturer is required")
	case deps.Sink == nil:
		return nil, errors.New("assistant: sink is required")
	case deps.Transcriber == nil:
		return nil, errors.New("assistant: transcriber is required")
	case deps.Generator == nil:
		return nil, errors.New("assistant: generator is required")
	case deps.Speaker == nil:
		return nil, errors.New("assistant: speaker is required")
	case deps.Launcher == nil:
		return nil, errors.New("assistant: launcher is required")
	}

	if len(opts.Trigger.Words) == 0 {
		opts.Trigger = nlu.DefaultTrigger
	}
	if opts.ReportTimeout <= 0 {
		opts.ReportTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Session{deps: deps, opts: opts}, nil
}

// Run performs one session. Each call captures with a fresh state machine,
// so a Session may be run again after it returns, never concurrently.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{ID: s.opts.NewID(), StartedAt: s.opts.Now()}
	lg := log.With("session", out.ID)

	err := s.run(ctx, &out, lg)
	out.Duration = s.opts.Now().Sub(out.StartedAt)
	out.Err = err

	switch {
	case err == nil:
		lg.Info("Session done", "route", out.Route, "took", out.Duration)
	case errors.Is(err, ErrNothingCaptured), errors.Is(err, ErrCancelled):
		lg.Info("Session ended", "reason", err)
	default:
		lg.Error("Session failed", "err", err)
	}

	s.report(ctx, out, lg)
	return out, err
}

func (s *Session) run(ctx context.Context, out *Outcome, lg *log.Logger) error {
	if s.deps.Cue != nil {
		if err := s.deps.Cue.Play(ctx); err != nil {
			lg.Warn("Failed to play cue", "err", err)
		}
	}

	lg.Info("Listening")
	samples, err := s.deps.Capturer.Capture(ctx)
	if err != nil {
		if errors.Is(err, ErrNothingCaptured) || errors.Is(err, ErrCancelled) {
			return err
		}
		return fmt.Errorf("capture: %w", err)
	}
	out.Samples = len(samples)

	path, err := s.deps.Sink.Persist(ctx, samples)
	if err != nil {
		return fmt.Errorf("persist audio: %w", err)
	}
	out.AudioPath = path
	lg.Debug("Audio stored", "path", path, "samples", out.Samples)

	text, err := s.deps.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}
	out.Transcript = text
	lg.Info("Transcribed", "text", text)

	d := nlu.Route(text, s.opts.Trigger)
	out.Normalized = d.Normalized
	out.Route = d.Kind

	switch d.Kind {
	case nlu.RouteEmpty:
		lg.Info("Nothing to answer")
		return nil

	case nlu.RouteLaunch:
		lg.Info("Trigger matched", "trigger", s.opts.Trigger.String())
		if err := s.deps.Launcher.Launch(ctx); err != nil {
			return fmt.Errorf("launch: %w", err)
		}
		return nil
	}

	reply, err := s.deps.Generator.Generate(ctx, d.Normalized)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	out.Reply = reply

	return s.speak(ctx, reply, lg)
}

func (s *Session) speak(ctx context.Context, text string, lg *log.Logger) error {
	if s.deps.Ducker != nil {
		if err := s.deps.Ducker.Duck(ctx); err != nil {
			lg.Warn("Failed to duck playback", "err", err)
		}
		defer func() {
			if err := s.deps.Ducker.Restore(context.WithoutCancel(ctx)); err != nil {
				lg.Warn("Failed to restore playback", "err", err)
			}
		}()
	}

	if err := s.deps.Speaker.Speak(ctx, text); err != nil {
		return fmt.Errorf("speak: %w", err)
	}
	return nil
}

// report hands the outcome to the optional observers. Their failures are
// logged only.
func (s *Session) report(ctx context.Context, out Outcome, lg *log.Logger) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.Observe(out)
	}

	if s.deps.History == nil && s.deps.Publisher == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ReportTimeout)
	defer cancel()

	if s.deps.History != nil {
		if err := s.deps.History.Record(rctx, out); err != nil {
			lg.Warn("Failed to record history", "err", err)
		}
	}
	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Publish(rctx, out); err != nil {
			lg.Warn("Failed to publish outcome", "err", err)
		}
	}
}
