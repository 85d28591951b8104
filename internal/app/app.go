// Package app builds a ready session from configuration. It is shared by
// the one-shot command and the daemon.
package app

import (
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"

	"github.com/lmittmann/tint"

	"parlo/internal/assistant"
	"parlo/internal/audio"
	"parlo/internal/config"
	"parlo/internal/events"
	"parlo/internal/history"
	"parlo/internal/launch"
	"parlo/internal/llm"
	"parlo/internal/metrics"
	"parlo/internal/notify"
	"parlo/internal/nlu"
	"parlo/internal/proxy"
	"parlo/internal/tts"
	"parlo/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func NewLogger(w io.Writer, level string) *log.Logger {
	return log.New(tint.NewHandler(w, &tint.Options{
		Level: logLevelMap[level],
	}))
}

type App struct {
	Session *assistant.Session
	// Metrics is nil unless WithMetrics was requested.
	Metrics *metrics.Metrics

	closers []func() error
}

type BuildOptions struct {
	// Echo receives the reply while it streams; nil disables echo.
	Echo        io.Writer
	WithMetrics bool
}

// Build wires every collaborator named by cfg. The returned App must be
// closed even when Run was never called.
func Build(cfg config.Config, opts BuildOptions) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	httpClient, err := proxy.NewSocksClient(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("proxy: %w", err)
	}

	rec := audio.NewRecorder(audio.RecorderConfig{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
	})
	if err := rec.Init(); err != nil {
		return nil, fmt.Errorf("init audio: %w", err)
	}
	a.closers = append(a.closers, func() error { rec.Close(); return nil })
	log.Debug("Loaded recorder")

	transcriber, err := newTranscriber(cfg.STT)
	if err != nil {
		return nil, err
	}
	if c, ok := transcriber.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}
	log.Debug("Loaded speech recognition", "engine", cfg.STT.Engine)

	generator, err := newGenerator(cfg.LLM, httpClient, opts.Echo)
	if err != nil {
		return nil, err
	}
	log.Debug("Loaded language model", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	launcher := launch.Browser()
	if cfg.Trigger.Command != "" {
		if launcher, err = launch.Parse(cfg.Trigger.Command); err != nil {
			return nil, fmt.Errorf("trigger command: %w", err)
		}
	}

	deps := assistant.Deps{
		Capturer: audio.Mic{
			Recorder: rec,
			Listen: audio.ListenConfig{
				Capture: audio.CaptureConfig{
					StartThreshold: cfg.Audio.StartThreshold,
					SilenceWindow:  cfg.Audio.SilenceWindow,
				},
				MaxWait: cfg.Audio.MaxWait,
			},
		},
		Sink:        audio.WAVSink{Path: cfg.Audio.OutputPath, SampleRate: cfg.Audio.SampleRate},
		Transcriber: transcriber,
		Generator:   generator,
		Speaker:     tts.Espeak{Voice: cfg.TTS.Voice, Rate: cfg.TTS.Rate},
		Launcher:    launcher,
	}

	if cfg.CuePath != "" {
		deps.Cue = notify.Beeper{Path: cfg.CuePath}
	}
	if cfg.Duck.Enabled {
		deps.Ducker = audio.NewDucker(audio.DuckConfig{
			SelfNames: []string{"espeak", "espeak-ng", "parlo"},
			Factor:    cfg.Duck.Factor,
		})
	}
	if cfg.HistoryPath != "" {
		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		deps.History = store
	}
	if cfg.EventsURL != "" {
		bus, err := events.NewBus(cfg.EventsURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, bus.Close)
		deps.Publisher = bus
	}
	if opts.WithMetrics {
		a.Metrics = metrics.New(cfg.Audio.SampleRate)
		deps.Metrics = a.Metrics
	}

	a.Session, err = assistant.New(deps, assistant.Options{
		Trigger: nlu.ParseTrigger(cfg.Trigger.Phrase),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newTranscriber(cfg config.STTConfig) (assistant.Transcriber, error) {
	switch cfg.Engine {
	case "cli":
		return stt.NewCLI(cfg.Exec, cfg.Model, cfg.Language), nil
	default:
		t, err := stt.NewTranscriber(cfg.Model, stt.Options{
			Language: cfg.Language,
			Threads:  cfg.Threads,
		})
		if err != nil {
			return nil, fmt.Errorf("init whisper: %w", err)
		}
		return t, nil
	}
}

func newGenerator(cfg config.LLMConfig, httpClient *http.Client, echo io.Writer) (assistant.Generator, error) {
	lc := llm.Config{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Prompt:   cfg.Prompt,
	}
	if cfg.Provider == "openai" {
		return llm.NewOpenAI(lc, httpClient, echo)
	}
	return llm.NewAnyLLM(lc, echo)
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
