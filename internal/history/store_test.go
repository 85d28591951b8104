package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"parlo/internal/assistant"
	"parlo/internal/nlu"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	outs := []assistant.Outcome{
		{ID: "a", StartedAt: base, Duration: 3 * time.Second, Samples: 44100, AudioPath: "recording.wav",
			Transcript: "Ouvre Chrome", Route: nlu.RouteLaunch},
		{ID: "b", StartedAt: base.Add(time.Minute), Duration: 1500 * time.Millisecond,
			Err: assistant.ErrNothingCaptured},
		{ID: "c", StartedAt: base.Add(2 * time.Minute), Duration: 5 * time.Second, Samples: 88200,
			Transcript: "Quelle heure est-il ?", Route: nlu.RouteReply, Reply: "Il est midi."},
	}
	for _, o := range outs {
		if err := s.Record(ctx, o); err != nil {
			t.Fatalf("Record(%s): %v", o.ID, err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("Recent = %+v", got)
	}

	c := got[0]
	if c.Status != "ok" || c.Route != "reply" || c.Reply != "Il est midi." || c.Samples != 88200 {
		t.Errorf("entry c = %+v", c)
	}
	if c.Duration != 5*time.Second {
		t.Errorf("Duration = %v", c.Duration)
	}
	if !c.StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("StartedAt = %v", c.StartedAt)
	}

	b := got[1]
	if b.Status != "empty" || b.Error != assistant.ErrNothingCaptured.Error() {
		t.Errorf("entry b = %+v", b)
	}
}

func TestRecordDuplicateID(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	o := assistant.Outcome{ID: "dup", StartedAt: time.Now(), Err: errors.New("boom")}
	if err := s.Record(ctx, o); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, o); err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Record(context.Background(), assistant.Outcome{ID: "x", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, err := s.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "x" {
		t.Errorf("Recent = %+v", got)
	}
}
