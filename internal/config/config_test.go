package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func env(m map[string]string) Loader {
	return Loader{Lookup: func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.FramesPerBuffer != 1024 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.StartThreshold != 0.01 || cfg.Audio.SilenceWindow != time.Second {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Audio.OutputPath != "recording.wav" || cfg.Audio.MaxWait != 0 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama2" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trigger.Phrase != DefaultTrigger {
		t.Errorf("Phrase = %q", cfg.Trigger.Phrase)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parlo.yaml")
	data := `
log_level: debug
audio:
  silence_window: 1500ms
  max_wait: 30s
llm:
  provider: openai
  model: gpt-4o-mini
trigger:
  phrase: lance firefox
  command: firefox --new-window
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Audio.SilenceWindow != 1500*time.Millisecond || cfg.Audio.MaxWait != 30*time.Second {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	// untouched fields keep defaults
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %d", cfg.Audio.SampleRate)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
	if cfg.Trigger.Command != "firefox --new-window" {
		t.Errorf("Command = %q", cfg.Trigger.Command)
	}
}

func TestLoadUnknownField(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("audio:\n  volume: 11\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.STT.Language != "fr" {
		t.Errorf("Language = %q", cfg.STT.Language)
	}
}

func TestLoaderOverrides(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"

	err := env(map[string]string{
		"PARLO_START_THRESHOLD": "0.05",
		"PARLO_SILENCE_WINDOW":  "2s",
		"PARLO_TRIGGER":         " lance firefox ",
		"OPENAI_API_KEY":        "sk-env",
		"PARLO_PROXY":           "127.0.0.1:8888",
		"PARLO_LOG_LEVEL":       "",
	}).Apply(&cfg)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Audio.StartThreshold != 0.05 || cfg.Audio.SilenceWindow != 2*time.Second {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Trigger.Phrase != "lance firefox" {
		t.Errorf("Phrase = %q", cfg.Trigger.Phrase)
	}
	if cfg.LLM.APIKey != "sk-env" || cfg.Proxy != "127.0.0.1:8888" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("blank env must not override, LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoaderOpenAIKeyOnlyForOpenAI(t *testing.T) {
	cfg := Default()
	if err := env(map[string]string{"OPENAI_API_KEY": "sk-env"}).Apply(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("APIKey = %q, want empty for ollama", cfg.LLM.APIKey)
	}
}

func TestLoaderInvalid(t *testing.T) {
	tests := map[string]string{
		"PARLO_START_THRESHOLD": "loud",
		"PARLO_SILENCE_WINDOW":  "1",
		"PARLO_SAMPLE_RATE":     "44.1k",
	}
	for key, value := range tests {
		cfg := Default()
		if err := env(map[string]string{key: value}).Apply(&cfg); err == nil {
			t.Errorf("%s=%q: expected error", key, value)
		}
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Audio.StartThreshold = 0
	cfg.STT.Engine = "cli"
	cfg.LLM.Provider = "openai"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"log_level", "start_threshold", "stt.exec", "api_key"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
