package llm

import (
	"context"
	"fmt"
	"io"
	log "log/slog"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
)

const (
	DefaultProvider = "ollama"
	DefaultModel    = "llama2"
)

// AnyLLM streams completions through any-llm-go, which is how local models
// served by Ollama are reached.
type AnyLLM struct {
	backend anyllmlib.Provider
	cfg     Config
	echo    io.Writer
}

func NewAnyLLM(cfg Config, echo io.Writer) (*AnyLLM, error) {
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	var opts []anyllmlib.Option
	if cfg.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(cfg.BaseURL))
	}

	backend, err := newBackend(cfg.Provider, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: %s backend: %w", cfg.Provider, err)
	}

	return &AnyLLM{backend: backend, cfg: cfg, echo: echo}, nil
}

func newBackend(name string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(name) {
	case "ollama":
		return ollama.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q", name)
	}
}

func (a *AnyLLM) params(text string) anyllmlib.CompletionParams {
	return anyllmlib.CompletionParams{
		Model: a.cfg.Model,
		Messages: []anyllmlib.Message{
			{Role: anyllmlib.RoleUser, Content: a.cfg.prompt(text)},
		},
	}
}

func (a *AnyLLM) Generate(ctx context.Context, text string) (string, error) {
	chunks, errs := a.backend.CompletionStream(ctx, a.params(text))

	r := &reply{echo: a.echo}
	for chunk := range chunks {
		if len(chunk.Choices) == 0 {
			continue
		}
		r.add(chunk.Choices[0].Delta.Content)
	}

	if err := <-errs; err != nil {
		return "", fmt.Errorf("completion stream: %w", err)
	}

	out := r.String()
	log.Debug("Reply complete", "provider", a.cfg.Provider, "model", a.cfg.Model, "chars", len(out))
	return out, nil
}
