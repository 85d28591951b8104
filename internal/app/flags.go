package app

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"parlo/internal/config"
)

type Flags struct {
	fs *cli.FlagSet

	ConfigPath string
	EnvFile    string
	LogLevel   string
	Proxy      string
	Output     string
	Provider   string
	Model      string
	Trigger    string
	MaxWait    string
}

func BindFlags(fs *cli.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "parlo.yaml", "Config file path")
	fs.StringVarP(&f.EnvFile, "env", "e", ".env", "Env file path")
	fs.StringVarP(&f.LogLevel, "log", "l", "info", "Log level")
	fs.StringVarP(&f.Proxy, "proxy", "p", "", "Socks Proxy Address")
	fs.StringVarP(&f.Output, "output", "o", config.DefaultOutputPath, "Recorded audio file")
	fs.StringVar(&f.Provider, "provider", config.DefaultLLMProvider, "Language model provider")
	fs.StringVarP(&f.Model, "model", "m", config.DefaultLLMModel, "Language model")
	fs.StringVarP(&f.Trigger, "trigger", "t", config.DefaultTrigger, "Phrase that launches the browser")
	fs.StringVar(&f.MaxWait, "max-wait", "0s", "Give up listening after this long (0 waits forever)")
	return f
}

// Config resolves the configuration: file, then .env and environment, then
// flags given explicitly on the command line.
func (f *Flags) Config(loader config.Loader) (config.Config, error) {
	cfg, err := config.Load(f.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	// a missing .env is normal
	_ = godotenv.Load(f.EnvFile)
	if err := loader.Apply(&cfg); err != nil {
		return config.Config{}, err
	}

	set := func(name string, apply func()) {
		if f.fs.Changed(name) {
			apply()
		}
	}
	set("log", func() { cfg.LogLevel = f.LogLevel })
	set("proxy", func() { cfg.Proxy = f.Proxy })
	set("output", func() { cfg.Audio.OutputPath = f.Output })
	set("provider", func() { cfg.LLM.Provider = f.Provider })
	set("model", func() { cfg.LLM.Model = f.Model })
	set("trigger", func() { cfg.Trigger.Phrase = f.Trigger })

	if f.fs.Changed("max-wait") {
		d, err := time.ParseDuration(f.MaxWait)
		if err != nil {
			return config.Config{}, fmt.Errorf("--max-wait: %w", err)
		}
		cfg.Audio.MaxWait = d
	}

	loader.ResolveAPIKey(&cfg)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
