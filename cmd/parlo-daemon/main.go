package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "log/slog"

	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"parlo/internal/app"
	"parlo/internal/config"
	"parlo/internal/ipc"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := app.BindFlags(cli.CommandLine)
	socket := cli.StringP("socket", "s", "", "Control socket (overrides config)")
	metricsAddr := cli.String("metrics", "", "Serve Prometheus metrics on this address")
	cli.Parse()

	cfg, err := flags.Config(config.Loader{})
	if err != nil {
		log.Error("Invalid configuration", "err", err)
		return 1
	}
	if *socket != "" {
		cfg.Daemon.Socket = *socket
	}
	if *metricsAddr != "" {
		cfg.Daemon.MetricsAddr = *metricsAddr
	}
	log.SetDefault(app.NewLogger(os.Stdout, cfg.LogLevel))

	log.Info("Booting up")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(cfg, app.BuildOptions{
		Echo:        os.Stdout,
		WithMetrics: cfg.Daemon.MetricsAddr != "",
	})
	if err != nil {
		log.Error("Failed to boot", "err", err)
		return 1
	}
	defer a.Close()

	log.Info("Boot up - successful")

	// one pending trigger at most; sessions run one after another
	triggers := make(chan struct{}, 1)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ipc.Serve(ctx, cfg.Daemon.Socket, func(_ context.Context, msg ipc.ControlMessage) error {
			switch msg.Cmd {
			case ipc.CmdTrigger:
				select {
				case triggers <- struct{}{}:
				default:
					log.Debug("Trigger already pending")
				}
				return nil
			case ipc.CmdPing:
				return nil
			default:
				log.Warn("Unknown command", "cmd", msg.Cmd)
				return fmt.Errorf("unknown command %q", msg.Cmd)
			}
		})
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-triggers:
				// errors are logged by the session
				a.Session.Run(ctx)
			}
		}
	})

	if a.Metrics != nil {
		srv := &http.Server{
			Addr:              cfg.Daemon.MetricsAddr,
			Handler:           metricsMux(a),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info("Serving metrics", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("Daemon stopped", "err", err)
		return 1
	}
	log.Info("Shut down")
	return 0
}

func metricsMux(a *app.App) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	return mux
}
