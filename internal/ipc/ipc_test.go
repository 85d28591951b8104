package ipc

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func serve(t *testing.T, handler Handler) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parlo.sock")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, path, handler) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if err := SendCommand(context.Background(), path, CmdPing); err == nil {
			return path
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server never came up")
	return ""
}

func TestRoundTrip(t *testing.T) {
	got := make(chan string, 4)
	path := serve(t, func(_ context.Context, msg ControlMessage) error {
		got <- msg.Cmd
		return nil
	})
	<-got // ping from serve

	if err := SendCommand(context.Background(), path, CmdTrigger); err != nil {
		t.Fatalf("SendCommand: %v", err)
	}
	select {
	case cmd := <-got:
		if cmd != CmdTrigger {
			t.Errorf("cmd = %q", cmd)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not called")
	}
}

func TestHandlerError(t *testing.T) {
	path := serve(t, func(_ context.Context, msg ControlMessage) error {
		if msg.Cmd != CmdPing {
			return fmt.Errorf("unknown command %q", msg.Cmd)
		}
		return nil
	})

	err := SendCommand(context.Background(), path, "dance")
	if err == nil || err.Error() != `unknown command "dance"` {
		t.Fatalf("err = %v", err)
	}
}

func TestSendCommandNoDaemon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.sock")
	if err := SendCommand(context.Background(), path, CmdTrigger); err == nil {
		t.Fatal("expected error without daemon")
	}
}
