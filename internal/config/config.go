// Package config holds parlo's settings. Values come from defaults, then an
// optional YAML file, then environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
	DefaultStartThreshold  = 0.01
	DefaultSilenceWindow   = time.Second
	DefaultOutputPath      = "recording.wav"

	DefaultSTTEngine = "whisper"
	DefaultSTTModel  = "third_party/whisper.cpp/models/ggml-medium.bin"
	DefaultLanguage  = "fr"

	DefaultLLMProvider = "ollama"
	DefaultLLMModel    = "llama2"

	DefaultVoice   = "fr"
	DefaultTrigger = "ouvre chrome"
	DefaultSocket  = "/tmp/parlo.sock"
)

var (
	LogLevels    = []string{"debug", "info", "warn", "error"}
	STTEngines   = []string{"whisper", "cli"}
	LLMProviders = []string{"openai", "ollama", "anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile"}
)

type Config struct {
	LogLevel string `yaml:"log_level"`

	Audio   AudioConfig   `yaml:"audio"`
	STT     STTConfig     `yaml:"stt"`
	LLM     LLMConfig     `yaml:"llm"`
	TTS     TTSConfig     `yaml:"tts"`
	Trigger TriggerConfig `yaml:"trigger"`
	Duck    DuckConfig    `yaml:"duck"`
	Daemon  DaemonConfig  `yaml:"daemon"`

	// CuePath is an mp3 played when listening starts. Empty disables it.
	CuePath     string `yaml:"cue_path"`
	HistoryPath string `yaml:"history_path"`
	EventsURL   string `yaml:"events_url"`
	// Proxy is a SOCKS5 host:port used for remote language models.
	Proxy string `yaml:"proxy"`
}

type AudioConfig struct {
	SampleRate      int           `yaml:"sample_rate"`
	FramesPerBuffer int           `yaml:"frames_per_buffer"`
	StartThreshold  float64       `yaml:"start_threshold"`
	SilenceWindow   time.Duration `yaml:"silence_window"`
	MaxWait         time.Duration `yaml:"max_wait"`
	OutputPath      string        `yaml:"output_path"`
}

type STTConfig struct {
	Engine   string `yaml:"engine"`
	Model    string `yaml:"model"`
	Exec     string `yaml:"exec"`
	Language string `yaml:"language"`
	Threads  int    `yaml:"threads"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Prompt   string `yaml:"prompt"`
}

type TTSConfig struct {
	Voice string `yaml:"voice"`
	Rate  int    `yaml:"rate"`
}

type TriggerConfig struct {
	Phrase string `yaml:"phrase"`
	// Command overrides the platform browser command.
	Command string `yaml:"command"`
}

type DuckConfig struct {
	Enabled bool    `yaml:"enabled"`
	Factor  float64 `yaml:"factor"`
}

type DaemonConfig struct {
	Socket      string `yaml:"socket"`
	MetricsAddr string `yaml:"metrics_addr"`
}

func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			StartThreshold:  DefaultStartThreshold,
			SilenceWindow:   DefaultSilenceWindow,
			OutputPath:      DefaultOutputPath,
		},
		STT: STTConfig{
			Engine:   DefaultSTTEngine,
			Model:    DefaultSTTModel,
			Language: DefaultLanguage,
		},
		LLM: LLMConfig{
			Provider: DefaultLLMProvider,
			Model:    DefaultLLMModel,
		},
		TTS:     TTSConfig{Voice: DefaultVoice},
		Trigger: TriggerConfig{Phrase: DefaultTrigger},
		Duck:    DuckConfig{Factor: 0.3},
		Daemon:  DaemonConfig{Socket: DefaultSocket},
	}
}

// Validate returns every problem found, joined.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(LogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", c.LogLevel))
	}

	a := c.Audio
	if a.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", a.SampleRate))
	}
	if a.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be positive, got %d", a.FramesPerBuffer))
	}
	if a.StartThreshold <= 0 || a.StartThreshold >= 1 {
		errs = append(errs, fmt.Errorf("audio.start_threshold must be in (0, 1), got %v", a.StartThreshold))
	}
	if a.SilenceWindow <= 0 {
		errs = append(errs, fmt.Errorf("audio.silence_window must be positive, got %v", a.SilenceWindow))
	}
	if a.MaxWait < 0 {
		errs = append(errs, fmt.Errorf("audio.max_wait must not be negative, got %v", a.MaxWait))
	}
	if a.OutputPath == "" {
		errs = append(errs, errors.New("audio.output_path is required"))
	}

	if !slices.Contains(STTEngines, c.STT.Engine) {
		errs = append(errs, fmt.Errorf("stt.engine %q is invalid; valid values: whisper, cli", c.STT.Engine))
	}
	if c.STT.Model == "" {
		errs = append(errs, errors.New("stt.model is required"))
	}
	if c.STT.Engine == "cli" && c.STT.Exec == "" {
		errs = append(errs, errors.New("stt.exec is required for the cli engine"))
	}

	if !slices.Contains(LLMProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key (or OPENAI_API_KEY) is required for openai"))
	}

	if c.Trigger.Phrase == "" {
		errs = append(errs, errors.New("trigger.phrase is required"))
	}
	if c.Duck.Enabled && (c.Duck.Factor <= 0 || c.Duck.Factor > 1) {
		errs = append(errs, fmt.Errorf("duck.factor must be in (0, 1], got %v", c.Duck.Factor))
	}

	return errors.Join(errs...)
}
