package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/bubble-popper/internal/game"
)

// noopScheduler never fires, so sessions stay inert in these tests.
type noopScheduler struct{}

func (noopScheduler) After(time.Duration, func()) game.Cancel { return func() {} }
func (noopScheduler) Every(time.Duration, func()) game.Cancel { return func() {} }

func newSession(id string) *game.Session {
	logger := zerolog.Nop()
	rules := game.NewRules([]string{"cat"}, game.NewRand(1))
	return game.NewSession(id, rules, game.Bounds{Width: 800, Height: 600}, game.SessionConfig{
		Scheduler: noopScheduler{},
		Logger:    &logger,
	})
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession("a")
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, "a")
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := st.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if !s.Closed() {
		t.Error("Delete did not close the session")
	}
	if _, err := st.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session still found: %v", err)
	}
	if err := st.Delete(ctx, "a"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSaveReplacingClosesOld(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	old, repl := newSession("a"), newSession("a")
	st.Save(ctx, old)
	st.Save(ctx, repl)
	if !old.Closed() || repl.Closed() {
		t.Errorf("old closed=%v replacement closed=%v", old.Closed(), repl.Closed())
	}
	if st.Len() != 1 {
		t.Errorf("Len = %d, want 1", st.Len())
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore().(*memory)
	idle := newSession("idle")
	m.Save(ctx, idle)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }
	if n := m.Sweep(ctx, 2*time.Hour); n != 0 {
		t.Fatalf("swept %d sessions before the ttl", n)
	}

	time.Sleep(60 * time.Millisecond)
	fresh := newSession("fresh")
	m.Save(ctx, fresh)
	m.now = time.Now

	if n := m.Sweep(ctx, 30*time.Millisecond); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if !idle.Closed() || fresh.Closed() {
		t.Errorf("idle closed=%v fresh closed=%v", idle.Closed(), fresh.Closed())
	}
	if _, err := m.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session gone: %v", err)
	}
}

func TestRunReaperStopsOnCancel(t *testing.T) {
	st := NewMemoryStore()
	s := newSession("x")
	st.Save(context.Background(), s)
	s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunReaper(ctx, st, time.Millisecond, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for st.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("reaper never removed the closed session")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
}
