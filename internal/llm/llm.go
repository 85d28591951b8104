// Package llm generates spoken replies from a language model. Every backend
// streams the reply, echoes chunks as they arrive and returns the full text.
package llm

import (
	"fmt"
	"io"
	"strings"
)

// DefaultPrompt is prepended to the user's request so the model answers in
// French whatever language the request was recognised in.
const DefaultPrompt = "Réponds en français à la requête suivante : "

type Config struct {
	// Provider is "openai" for the native OpenAI client; any other name is
	// served through any-llm-go ("ollama", "anthropic", ...).
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Prompt   string
}

func (c Config) prompt(text string) string {
	p := c.Prompt
	if p == "" {
		p = DefaultPrompt
	}
	return p + text
}

// reply accumulates streamed chunks and mirrors them to echo.
type reply struct {
	b    strings.Builder
	echo io.Writer
}

func (r *reply) add(s string) {
	if s == "" {
		return
	}
	r.b.WriteString(s)
	if r.echo != nil {
		fmt.Fprint(r.echo, s)
	}
}

func (r *reply) String() string {
	if r.echo != nil && r.b.Len() > 0 {
		fmt.Fprintln(r.echo)
	}
	return r.b.String()
}
