package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI streams chat completions with the official SDK.
type OpenAI struct {
	client openai.Client
	cfg    Config
	echo   io.Writer
}

// NewOpenAI builds the client. httpClient may be nil; it is how the SOCKS
// proxy is plugged in.
func NewOpenAI(cfg Config, httpClient *http.Client, echo io.Writer) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api key not set")
	}
	if cfg.Model == "" {
		cfg.Model = string(openai.ChatModelGPT4oMini)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &OpenAI{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		echo:   echo,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, text string) (string, error) {
	stream := o.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(o.cfg.prompt(text)),
		},
		Model: openai.ChatModel(o.cfg.Model),
	})
	defer stream.Close()

	r := &reply{echo: o.echo}
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		r.add(chunk.Choices[0].Delta.Content)
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("chat completion stream: %w", err)
	}

	out := r.String()
	log.Debug("Reply complete", "model", o.cfg.Model, "chars", len(out))
	return out, nil
}
