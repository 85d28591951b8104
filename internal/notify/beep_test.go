package notify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBeeperDisabled(t *testing.T) {
	if err := (Beeper{}).Play(context.Background()); err != nil {
		t.Fatalf("Play: %v", err)
	}
}

func TestBeeperMissingFile(t *testing.T) {
	b := Beeper{Path: filepath.Join(t.TempDir(), "missing.mp3")}
	if err := b.Play(context.Background()); err == nil {
		t.Fatal("expected error for missing cue")
	}
}

func TestBeeperNotMP3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue.mp3")
	if err := os.WriteFile(path, []byte("definitely not audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (Beeper{Path: path}).Play(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
