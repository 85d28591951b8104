package stt

import (
	"context"
	"os/exec"
	"slices"
	"testing"
)

func TestCLIArgs(t *testing.T) {
	c := NewCLI("whisper-cli", "models/ggml-large.bin", "")
	got := c.args("rec.wav")
	want := []string{"-m", "models/ggml-large.bin", "-l", "fr", "-nt", "-f", "rec.wav"}
	if !slices.Equal(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestCLITranscribe(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	c := NewCLI("whisper-cli", "m.bin", "fr")
	c.command = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		script := `printf '\n[00:00:00.000 --> 00:00:01.500]  Quelle heure\n est-il ?\n'`
		return exec.CommandContext(ctx, "sh", "-c", script)
	}

	got, err := c.Transcribe(context.Background(), "rec.wav")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "Quelle heure est-il ?" {
		t.Errorf("text = %q", got)
	}
}

func TestCLITranscribeFailure(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	c := NewCLI("whisper-cli", "m.bin", "fr")
	c.command = func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo 'model not found' >&2; exit 3")
	}

	if _, err := c.Transcribe(context.Background(), "rec.wav"); err == nil {
		t.Fatal("expected error")
	}
}
