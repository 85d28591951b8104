package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	log "log/slog"

	cli "github.com/spf13/pflag"

	"parlo/internal/app"
	"parlo/internal/assistant"
	"parlo/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := app.BindFlags(cli.CommandLine)
	cli.Parse()

	cfg, err := flags.Config(config.Loader{})
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		return 1
	}
	log.SetDefault(app.NewLogger(os.Stdout, cfg.LogLevel))

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(cfg, app.BuildOptions{Echo: os.Stdout})
	if err != nil {
		log.Error("Failed to boot", "err", err)
		return 1
	}
	defer a.Close()

	log.Info("Boot up - successful")

	_, err = a.Session.Run(ctx)
	switch {
	case err == nil, errors.Is(err, assistant.ErrNothingCaptured):
		return 0
	case errors.Is(err, assistant.ErrCancelled):
		return 130
	default:
		return 1
	}
}
