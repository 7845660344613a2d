package game

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// manualScheduler records scheduled tasks and fires them on demand.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	every     bool
	fn        func()
	cancelled bool
	fired     bool
}

func (m *manualScheduler) add(every bool, fn func()) Cancel {
	m.mu.Lock()
	defer m.mu.Unlock()
	task := &manualTask{every: every, fn: fn}
	m.tasks = append(m.tasks, task)
	return func() {
		m.mu.Lock()
		task.cancelled = true
		m.mu.Unlock()
	}
}

func (m *manualScheduler) After(_ time.Duration, fn func()) Cancel { return m.add(false, fn) }
func (m *manualScheduler) Every(_ time.Duration, fn func()) Cancel { return m.add(true, fn) }

// pending returns live tasks of the given kind.
func (m *manualScheduler) pending(every bool) []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*manualTask
	for _, task := range m.tasks {
		if task.every == every && !task.cancelled && !task.fired {
			out = append(out, task)
		}
	}
	return out
}

// fireTimers runs every live one-shot task.
func (m *manualScheduler) fireTimers() int {
	tasks := m.pending(false)
	for _, task := range tasks {
		m.mu.Lock()
		task.fired = true
		m.mu.Unlock()
		task.fn()
	}
	return len(tasks)
}

// tick runs every live periodic task n times.
func (m *manualScheduler) tick(n int) {
	for i := 0; i < n; i++ {
		for _, task := range m.pending(true) {
			task.fn()
		}
	}
}

type recordingCues struct {
	mu      sync.Mutex
	correct int
	wrong   int
}

func (c *recordingCues) PlayCorrect() { c.mu.Lock(); c.correct++; c.mu.Unlock() }
func (c *recordingCues) PlayWrong()   { c.mu.Lock(); c.wrong++; c.mu.Unlock() }

type panickingCues struct{}

func (panickingCues) PlayCorrect() { panic("no audio device") }
func (panickingCues) PlayWrong()   { panic("no audio device") }

func newTestSession(t *testing.T, cues CuePlayer, words ...string) (*Session, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	logger := zerolog.Nop()
	s := NewSession("test", NewRules(words, NewRand(9)), testViewport, SessionConfig{
		Scheduler: sched,
		Cues:      cues,
		Logger:    &logger,
	})
	t.Cleanup(s.Close)
	return s, sched
}

func TestSessionFlashTimerStartsPlay(t *testing.T) {
	s, sched := newTestSession(t, nil, "cat")
	if _, err := s.Start(nil); err != nil {
		t.Fatal(err)
	}
	if got := len(sched.pending(false)); got != 1 {
		t.Fatalf("flash timers armed = %d, want 1", got)
	}
	if len(sched.pending(true)) != 0 {
		t.Fatal("tick loop must not run during flash")
	}

	sched.fireTimers()
	r := s.Snapshot()
	if r.Phase != PhasePlay {
		t.Fatalf("phase = %s, want play", r.Phase)
	}
	if got := len(sched.pending(true)); got != 1 {
		t.Fatalf("tick loops armed = %d, want 1", got)
	}

	before := r.Bubbles[0].Pos
	sched.tick(5)
	if s.Snapshot().Bubbles[0].Pos == before {
		t.Error("ticks did not move bubbles")
	}
}

func TestSessionTickLoopStopsWhenPlayEnds(t *testing.T) {
	cues := &recordingCues{}
	s, sched := newTestSession(t, cues, "cat")
	s.Start(nil)
	sched.fireTimers()

	r := s.Snapshot()
	var decoy string
	for _, b := range r.Bubbles {
		if !b.IsCorrect {
			decoy = b.ID
			break
		}
	}
	r, err := s.Pop(decoy)
	if err != nil {
		t.Fatal(err)
	}
	if r.Phase != PhaseLost {
		t.Fatalf("phase = %s, want lost", r.Phase)
	}
	if len(sched.pending(true)) != 0 {
		t.Error("tick loop still armed after the round ended")
	}
	if cues.wrong != 1 || cues.correct != 0 {
		t.Errorf("cues: correct=%d wrong=%d", cues.correct, cues.wrong)
	}

	frozen := s.Snapshot()
	sched.tick(3)
	if s.Snapshot().Bubbles[0].Pos != frozen.Bubbles[0].Pos {
		t.Error("bubbles moved after the round ended")
	}
}

func TestSessionStaleFlashCallbackIgnored(t *testing.T) {
	s, sched := newTestSession(t, nil, "cat")
	s.Start(nil)
	first := sched.pending(false)[0]
	sched.fireTimers()

	r := s.Snapshot()
	for _, b := range r.Bubbles {
		if !b.IsCorrect {
			s.Pop(b.ID)
			break
		}
	}
	if _, err := s.Restart(nil); err != nil {
		t.Fatal(err)
	}

	// A late callback from round 1 must not spawn into round 2.
	first.fn()
	if r := s.Snapshot(); r.Phase != PhaseFlash || len(r.Bubbles) != 0 {
		t.Errorf("stale flash callback changed round 2: phase=%s bubbles=%d", r.Phase, len(r.Bubbles))
	}
	if n := sched.fireTimers(); n != 1 {
		t.Fatalf("fired %d timers, want 1", n)
	}
	if s.Snapshot().Phase != PhasePlay {
		t.Error("round 2 flash timer did not start play")
	}
}

func TestSessionCloseCancelsTasks(t *testing.T) {
	s, sched := newTestSession(t, nil, "cat")
	s.Start(nil)
	timer := sched.pending(false)[0]
	s.Close()

	if len(sched.pending(false)) != 0 {
		t.Error("flash timer still armed after close")
	}
	timer.fn()
	if s.Snapshot().Phase != PhaseFlash {
		t.Error("callback after close changed the round")
	}
	if _, err := s.Pop("x"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	if !s.Closed() {
		t.Error("Closed() = false")
	}
}

func TestSessionCuePanicDoesNotAffectState(t *testing.T) {
	s, sched := newTestSession(t, panickingCues{}, "cat")
	s.Start(nil)
	sched.fireTimers()

	r := s.Snapshot()
	var id string
	for _, b := range r.Bubbles {
		if b.IsCorrect {
			id = b.ID
			break
		}
	}
	next, err := s.Pop(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Popped) != 1 || s.Snapshot().Phase != PhasePlay {
		t.Errorf("cue panic leaked into state: %+v", next)
	}
}

func TestSessionRejectedEventKeepsRound(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.Start(nil)
	if !errors.Is(err, ErrEmptyWordList) {
		t.Fatalf("expected ErrEmptyWordList, got %v", err)
	}
	if s.Snapshot().Phase != PhaseIntro {
		t.Error("failed start left intro")
	}
}

func TestSessionSubscribeDeliversCues(t *testing.T) {
	s, sched := newTestSession(t, nil, "cat")
	updates, stop := s.Subscribe()
	defer stop()

	if u := <-updates; u.Round.Phase != PhaseIntro {
		t.Fatalf("initial update phase = %s", u.Round.Phase)
	}

	s.Start(nil)
	sched.fireTimers()
	r := s.Snapshot()
	var id string
	for _, b := range r.Bubbles {
		if b.IsCorrect {
			id = b.ID
			break
		}
	}
	s.Pop(id)
	// Ticks after the pop replace the pending update but keep its cue.
	sched.tick(3)

	u := <-updates
	if u.Cue != CueCorrect {
		t.Errorf("cue = %q, want correct", u.Cue)
	}
	if len(u.Round.Popped) != 1 {
		t.Errorf("update popped = %v", u.Round.Popped)
	}
}

func TestSessionCloseEndsSubscriptions(t *testing.T) {
	s, _ := newTestSession(t, nil, "cat")
	updates, _ := s.Subscribe()
	<-updates
	s.Close()
	if _, ok := <-updates; ok {
		t.Error("subscription channel still open after close")
	}
}

func TestSessionConcurrentEventsWithClock(t *testing.T) {
	logger := zerolog.Nop()
	cues := &recordingCues{}
	s := NewSession("race", NewRules([]string{"concurrency"}, NewRand(3)), testViewport, SessionConfig{
		FlashDelay:   time.Millisecond,
		TickInterval: time.Millisecond,
		Cues:         cues,
		Logger:       &logger,
	})
	defer s.Close()

	s.Start(nil)
	deadline := time.Now().Add(2 * time.Second)
	for s.Snapshot().Phase != PhasePlay {
		if time.Now().After(deadline) {
			t.Fatal("round never reached play")
		}
		time.Sleep(time.Millisecond)
	}

	var correct []string
	for _, b := range s.Snapshot().Bubbles {
		if b.IsCorrect {
			correct = append(correct, b.ID)
		}
	}

	// Every correct bubble popped from several goroutines at once, while the
	// tick loop keeps running.
	var wg sync.WaitGroup
	var popped atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range correct {
				if _, err := s.Pop(id); err == nil {
					popped.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	r := s.Snapshot()
	if r.Phase != PhaseWon {
		t.Errorf("phase = %s, want won", r.Phase)
	}
	cues.mu.Lock()
	defer cues.mu.Unlock()
	if cues.correct != len(correct) {
		t.Errorf("correct cues = %d, want %d (one per bubble)", cues.correct, len(correct))
	}
}
