package audio

import (
	"context"
	"strings"
	"sync"
	"testing"
)

const sinkInputs = `Sink Input #41
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #57
	Volume: mono: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "espeak-ng"
Sink Input #bogus
	Volume: mono: 100%
`

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	if len(got) != 2 {
		t.Fatalf("got %d inputs, want 2: %+v", len(got), got)
	}
	if got[0] != (sinkInput{ID: 41, Volume: 100, AppName: "Firefox"}) {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1] != (sinkInput{ID: 57, Volume: 80, AppName: "espeak-ng"}) {
		t.Errorf("got[1] = %+v", got[1])
	}
	if parseSinkInputs("") != nil {
		t.Error("expected nil for empty output")
	}
}

type pactlRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (p *pactlRecorder) run(_ context.Context, args ...string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, strings.Join(args, " "))
	if args[0] == "list" {
		return []byte(sinkInputs), nil
	}
	return nil, nil
}

func TestDuckerDuckAndRestore(t *testing.T) {
	rec := &pactlRecorder{}
	d := NewDucker(DuckConfig{SelfNames: []string{"espeak-ng"}, Factor: 0.25, MinVolume: 10})
	d.run = rec.run

	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}
	// Second call is a no-op.
	if err := d.Duck(context.Background()); err != nil {
		t.Fatalf("Duck: %v", err)
	}
	if err := d.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	want := []string{
		"list sink-inputs",
		"set-sink-input-volume 41 25%",
		"list sink-inputs",
		"set-sink-input-volume 41 100%",
	}
	if strings.Join(rec.calls, "\n") != strings.Join(want, "\n") {
		t.Errorf("calls:\n%s\nwant:\n%s", strings.Join(rec.calls, "\n"), strings.Join(want, "\n"))
	}
}

func TestDuckerRestoreWithoutDuck(t *testing.T) {
	rec := &pactlRecorder{}
	d := NewDucker(DuckConfig{})
	d.run = rec.run

	if err := d.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Errorf("unexpected pactl calls: %v", rec.calls)
	}
}
