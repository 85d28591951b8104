package launch

import (
	"context"
	"errors"
	"os/exec"
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	c, err := Parse("  open -a Safari ")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name != "open" || !slices.Equal(c.Args, []string{"-a", "Safari"}) {
		t.Errorf("Parse = %+v", c)
	}
	if c.String() != "open -a Safari" {
		t.Errorf("String = %q", c.String())
	}

	if _, err := Parse("   "); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestLaunch(t *testing.T) {
	var got []string
	c := Command{Name: "chrome", Args: []string{"--new-window"}}
	c.start = func(cmd *exec.Cmd) error {
		got = cmd.Args
		return nil
	}

	if err := c.Launch(context.Background()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if !slices.Equal(got, []string{"chrome", "--new-window"}) {
		t.Errorf("args = %v", got)
	}
}

func TestLaunchStartError(t *testing.T) {
	boom := errors.New("boom")
	c := Command{Name: "chrome"}
	c.start = func(*exec.Cmd) error { return boom }

	if err := c.Launch(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}

func TestLaunchRealProcess(t *testing.T) {
	c := Command{Name: "true"}
	if _, err := exec.LookPath(c.Name); err != nil {
		t.Skip("true not available")
	}
	if err := c.Launch(context.Background()); err != nil {
		t.Fatalf("Launch: %v", err)
	}
}

func TestLaunchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := Command{Name: "chrome"}
	c.start = func(*exec.Cmd) error {
		t.Fatal("must not start after cancel")
		return nil
	}
	if err := c.Launch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestBrowserDefault(t *testing.T) {
	if Browser().Name == "" {
		t.Fatal("no default browser command")
	}
	if err := (Command{}).Launch(context.Background()); err == nil {
		t.Error("expected error for empty command")
	}
}
