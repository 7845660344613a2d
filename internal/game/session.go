// internal/game/session.go
//
// Session is the single-writer container around one player's round.
//
// Responsibilities:
//   - Serialize every event (player input, flash timer, tick loop) through
//     Dispatch, which swaps in a new immutable Round under a mutex.
//   - Arm/disarm the scheduled tasks on phase edges:
//       • flash timer: armed on entering flash, cancelled when the round
//         sequence changes, the phase leaves flash, or the session closes.
//       • tick loop:   armed on entering play, cancelled the moment the
//         phase leaves play.
//     Scheduled callbacks carry the round sequence, so one that raced its own
//     cancellation is rejected by the reducer.
//   - Fan out updates to subscribers without ever blocking the writer.
//   - Play audio cues after the swap, outside the lock.

package game

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Scheduling defaults. The tick approximates one display refresh.
const (
	DefaultFlashDelay   = 2000 * time.Millisecond
	DefaultTickInterval = 16 * time.Millisecond
)

// Cancel stops a scheduled task. Calling it more than once is fine.
type Cancel func()

// Scheduler runs delayed and periodic callbacks.
type Scheduler interface {
	After(d time.Duration, fn func()) Cancel
	Every(d time.Duration, fn func()) Cancel
}

// ClockScheduler schedules on the wall clock.
type ClockScheduler struct{}

func (ClockScheduler) After(d time.Duration, fn func()) Cancel {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

func (ClockScheduler) Every(d time.Duration, fn func()) Cancel {
	t := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()
	return func() { once.Do(func() { close(done) }) }
}

// SessionConfig wires a Session to its collaborators. Zero values fall back
// to the defaults above, the wall clock, and silence.
type SessionConfig struct {
	FlashDelay   time.Duration
	TickInterval time.Duration
	Scheduler    Scheduler
	Cues         CuePlayer
	Logger       *zerolog.Logger
}

// Update is what subscribers receive after each state change.
type Update struct {
	Round Round `json:"round" msgpack:"round"`
	Cue   Cue   `json:"cue,omitempty" msgpack:"cue,omitempty"`
}

// Session owns one round at a time and everything that mutates it.
type Session struct {
	ID string

	mu          sync.Mutex
	rules       *Rules
	round       Round
	cfg         SessionConfig
	cancelFlash Cancel
	cancelTick  Cancel
	subs        map[uint64]chan Update
	nextSub     uint64
	closed      bool
	lastActive  time.Time
	log         zerolog.Logger
}

// NewSession returns a session in the intro phase.
func NewSession(id string, rules *Rules, viewport Bounds, cfg SessionConfig) *Session {
	if cfg.FlashDelay <= 0 {
		cfg.FlashDelay = DefaultFlashDelay
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = ClockScheduler{}
	}
	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}
	return &Session{
		ID:         id,
		rules:      rules,
		round:      rules.NewRound(viewport),
		cfg:        cfg,
		subs:       make(map[uint64]chan Update),
		lastActive: time.Now(),
		log:        base.With().Str("session", id).Logger(),
	}
}

// Start begins the first round. vp, when non-nil, replaces the viewport.
func (s *Session) Start(vp *Bounds) (Round, error) {
	return s.Dispatch(Event{Kind: EventStart, Viewport: vp})
}

// Restart begins a new round after a win or loss.
func (s *Session) Restart(vp *Bounds) (Round, error) {
	return s.Dispatch(Event{Kind: EventRestart, Viewport: vp})
}

// Pop forwards a player's pop. Unknown or stale ids are ignored.
func (s *Session) Pop(bubbleID string) (Round, error) {
	return s.Dispatch(Event{Kind: EventPop, BubbleID: bubbleID})
}

// Snapshot returns the current round. The value must not be modified.
func (s *Session) Snapshot() Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

// LastActive reports when the player last sent an event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Dispatch applies ev atomically and returns the resulting round.
func (s *Session) Dispatch(ev Event) (Round, error) {
	s.mu.Lock()
	if s.closed {
		r := s.round
		s.mu.Unlock()
		return r, ErrSessionClosed
	}

	prev := s.round
	next, cue, err := s.rules.Apply(prev, ev)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn().Err(err).Str("event", string(ev.Kind)).Str("phase", string(prev.Phase)).Msg("event rejected")
		return prev, err
	}

	s.round = next
	if ev.Kind != EventTick && ev.Kind != EventFlashElapsed {
		s.lastActive = time.Now()
	}
	s.reschedule(prev, next)

	ticked := ev.Kind == EventTick && next.Phase == PhasePlay && ev.Seq == next.Seq
	if ticked || cue != CueNone || prev.Seq != next.Seq || prev.Phase != next.Phase {
		s.publish(Update{Round: next, Cue: cue})
	}
	if prev.Phase != next.Phase {
		s.log.Info().
			Uint64("seq", next.Seq).
			Str("from", string(prev.Phase)).
			Str("to", string(next.Phase)).
			Int("bubbles", len(next.Bubbles)).
			Msg("round phase")
	}
	s.mu.Unlock()

	s.playCue(cue)
	return next, nil
}

// reschedule arms and cancels the flash timer and the tick loop for the
// prev -> next edge. Caller holds s.mu.
func (s *Session) reschedule(prev, next Round) {
	newRound := prev.Seq != next.Seq

	enteredFlash := next.Phase == PhaseFlash && (prev.Phase != PhaseFlash || newRound)
	if s.cancelFlash != nil && (enteredFlash || next.Phase != PhaseFlash) {
		s.cancelFlash()
		s.cancelFlash = nil
	}
	if enteredFlash {
		seq := next.Seq
		s.cancelFlash = s.cfg.Scheduler.After(s.cfg.FlashDelay, func() {
			_, _ = s.Dispatch(Event{Kind: EventFlashElapsed, Seq: seq})
		})
	}

	stillPlaying := next.Phase == PhasePlay && prev.Phase == PhasePlay && !newRound
	if s.cancelTick != nil && !stillPlaying {
		s.cancelTick()
		s.cancelTick = nil
	}
	if next.Phase == PhasePlay && s.cancelTick == nil {
		seq := next.Seq
		s.cancelTick = s.cfg.Scheduler.Every(s.cfg.TickInterval, func() {
			_, _ = s.Dispatch(Event{Kind: EventTick, Seq: seq})
		})
	}
}

// Subscribe returns a channel carrying the latest update. Slow readers miss
// intermediate ticks but never a cue: a pending cue is carried onto the
// update that replaces it. The current round is delivered immediately.
func (s *Session) Subscribe() (<-chan Update, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Update, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- Update{Round: s.round}

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publish delivers u to every subscriber. Caller holds s.mu.
func (s *Session) publish(u Update) {
	for _, ch := range s.subs {
		select {
		case ch <- u:
			continue
		default:
		}
		select {
		case old := <-ch:
			if u.Cue == CueNone {
				u.Cue = old.Cue
			}
		default:
		}
		select {
		case ch <- u:
		default:
		}
	}
}

func (s *Session) playCue(c Cue) {
	if c == CueNone || s.cfg.Cues == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			s.log.Error().Interface("panic", p).Str("cue", string(c)).Msg("cue player failed")
		}
	}()
	switch c {
	case CueCorrect:
		s.cfg.Cues.PlayCorrect()
	case CueWrong:
		s.cfg.Cues.PlayWrong()
	}
}

// Close cancels pending timers, stops the tick loop and ends all
// subscriptions. Later events return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.cancelFlash != nil {
		s.cancelFlash()
		s.cancelFlash = nil
	}
	if s.cancelTick != nil {
		s.cancelTick()
		s.cancelTick = nil
	}
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.log.Debug().Msg("session closed")
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
