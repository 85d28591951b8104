package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over the defaults. A missing file is not
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	if err := decode(f, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r over the defaults.
func LoadFromReader(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Loader applies environment overrides. Tests can override Lookup to inject
// deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

func (l Loader) Apply(cfg *Config) error {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	overrideString(l.Lookup, "PARLO_LOG_LEVEL", &cfg.LogLevel)

	if err := overrideInt(l.Lookup, "PARLO_SAMPLE_RATE", &cfg.Audio.SampleRate); err != nil {
		return err
	}
	if err := overrideFloat(l.Lookup, "PARLO_START_THRESHOLD", &cfg.Audio.StartThreshold); err != nil {
		return err
	}
	if err := overrideDuration(l.Lookup, "PARLO_SILENCE_WINDOW", &cfg.Audio.SilenceWindow); err != nil {
		return err
	}
	if err := overrideDuration(l.Lookup, "PARLO_MAX_WAIT", &cfg.Audio.MaxWait); err != nil {
		return err
	}
	overrideString(l.Lookup, "PARLO_OUTPUT", &cfg.Audio.OutputPath)

	overrideString(l.Lookup, "PARLO_STT_ENGINE", &cfg.STT.Engine)
	overrideString(l.Lookup, "PARLO_STT_MODEL", &cfg.STT.Model)
	overrideString(l.Lookup, "WHISPER_PATH", &cfg.STT.Exec)

	overrideString(l.Lookup, "PARLO_LLM_PROVIDER", &cfg.LLM.Provider)
	overrideString(l.Lookup, "PARLO_LLM_MODEL", &cfg.LLM.Model)
	overrideString(l.Lookup, "PARLO_LLM_BASE_URL", &cfg.LLM.BaseURL)
	overrideString(l.Lookup, "PARLO_LLM_API_KEY", &cfg.LLM.APIKey)
	l.ResolveAPIKey(cfg)

	overrideString(l.Lookup, "PARLO_VOICE", &cfg.TTS.Voice)
	overrideString(l.Lookup, "PARLO_TRIGGER", &cfg.Trigger.Phrase)
	overrideString(l.Lookup, "PARLO_TRIGGER_COMMAND", &cfg.Trigger.Command)

	overrideString(l.Lookup, "PARLO_SOCKET", &cfg.Daemon.Socket)
	overrideString(l.Lookup, "PARLO_METRICS_ADDR", &cfg.Daemon.MetricsAddr)
	overrideString(l.Lookup, "PARLO_CUE", &cfg.CuePath)
	overrideString(l.Lookup, "PARLO_HISTORY", &cfg.HistoryPath)
	overrideString(l.Lookup, "PARLO_EVENTS_URL", &cfg.EventsURL)
	overrideString(l.Lookup, "PARLO_PROXY", &cfg.Proxy)

	return nil
}

// ResolveAPIKey fills an empty OpenAI key from OPENAI_API_KEY. Call it again
// after anything that may switch the provider to openai.
func (l Loader) ResolveAPIKey(cfg *Config) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
		overrideString(l.Lookup, "OPENAI_API_KEY", &cfg.LLM.APIKey)
	}
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideFloat(lookup func(string) (string, bool), key string, target *float64) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, target *int) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}

func overrideDuration(lookup func(string) (string, bool), key string, target *time.Duration) error {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("config: invalid value for %s: %w", key, err)
		}
		*target = parsed
	}
	return nil
}
