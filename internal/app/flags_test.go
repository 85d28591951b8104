package app

import (
	"path/filepath"
	"testing"
	"time"

	cli "github.com/spf13/pflag"

	"parlo/internal/config"
)

func noEnv() config.Loader {
	return config.Loader{Lookup: func(string) (string, bool) { return "", false }}
}

func parse(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := cli.NewFlagSet("parlo", cli.ContinueOnError)
	f := BindFlags(fs)
	dir := t.TempDir()
	if err := fs.Parse(append([]string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--env", filepath.Join(dir, "missing.env"),
	}, args...)); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFlagsDefaults(t *testing.T) {
	cfg, err := parse(t).Config(noEnv())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.Provider != "ollama" || cfg.Trigger.Phrase != "ouvre chrome" || cfg.Audio.OutputPath != "recording.wav" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFlagsOverride(t *testing.T) {
	f := parse(t, "-t", "lance firefox", "-o", "/tmp/x.wav", "--max-wait", "20s", "-l", "debug")
	cfg, err := f.Config(noEnv())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Trigger.Phrase != "lance firefox" || cfg.Audio.OutputPath != "/tmp/x.wav" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Audio.MaxWait != 20*time.Second || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFlagsOpenAIKeyFromEnv(t *testing.T) {
	loader := config.Loader{Lookup: func(key string) (string, bool) {
		if key == "OPENAI_API_KEY" {
			return "sk-env", true
		}
		return "", false
	}}

	cfg, err := parse(t, "--provider", "openai", "-m", "gpt-4o-mini").Config(loader)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "sk-env" || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestFlagsInvalid(t *testing.T) {
	if _, err := parse(t, "--provider", "openai").Config(noEnv()); err == nil {
		t.Error("expected error for openai without key")
	}
	if _, err := parse(t, "--max-wait", "soon").Config(noEnv()); err == nil {
		t.Error("expected error for bad duration")
	}
}
