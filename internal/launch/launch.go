// Package launch starts external programs on behalf of a voice command.
package launch

import (
	"context"
	"fmt"
	log "log/slog"
	"os/exec"
	"strings"
)

// Command is a program and its arguments. It is started detached: Launch
// returns once the process is running, without waiting for it to exit.
type Command struct {
	Name string
	Args []string

	start func(*exec.Cmd) error
}

// Browser is the platform default command that opens the web browser.
func Browser() Command {
	return browser
}

// Parse splits a command line on whitespace. Quoting is not supported.
func Parse(line string) (Command, error) {
	f := strings.Fields(line)
	if len(f) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}
	return Command{Name: f[0], Args: f[1:]}, nil
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

func (c Command) Launch(ctx context.Context) error {
	if c.Name == "" {
		return fmt.Errorf("launch: no command configured")
	}

	// not bound to ctx, the launched program outlives the session
	cmd := exec.Command(c.Name, c.Args...)
	if err := ctx.Err(); err != nil {
		return err
	}

	start := c.start
	if start == nil {
		start = startDetached
	}
	if err := start(cmd); err != nil {
		return fmt.Errorf("launch %q: %w", c.String(), err)
	}

	log.Info("Launched", "cmd", c.String())
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
