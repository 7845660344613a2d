// internal/game/types.go
//
// Core type definitions for the bubble round engine.
// Defines:
//   - Phase: the round state machine's states.
//   - Bubble: a letter-bearing moving hit target.
//   - Round: an immutable snapshot of one play-through.
//   - Event/Cue: inputs to and side effects of the reducer.

package game

import (
	"errors"
	"math"
	"slices"
)

// Phase is the current state of a round.
type Phase string

const (
	PhaseIntro Phase = "intro"
	PhaseFlash Phase = "flash"
	PhasePlay  Phase = "play"
	PhaseWon   Phase = "won"
	PhaseLost  Phase = "lost"
)

// Finished reports whether p ends the round.
func (p Phase) Finished() bool { return p == PhaseWon || p == PhaseLost }

var (
	ErrEmptyWordList     = errors.New("word list is empty")
	ErrAlphabetExhausted = errors.New("decoy count exceeds unused alphabet letters")
	ErrViewportTooSmall  = errors.New("viewport smaller than a bubble")
	ErrInvalidTransition = errors.New("event not allowed in current phase")
	ErrInvalidWord       = errors.New("target word must be letters A-Z")
	ErrSessionClosed     = errors.New("session closed")
)

// Vec is a 2D vector in viewport units.
type Vec struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (v Vec) Add(o Vec) Vec       { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec       { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64  { return o.Sub(v).Len() }

// Bounds is the viewport size supplied by the presentation layer.
type Bounds struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Bubble is a letter-bearing circular hit target. Pos is the top-left corner
// of the size x size hit square.
type Bubble struct {
	ID        string `json:"id" msgpack:"id"`
	Char      string `json:"char" msgpack:"char"`
	IsCorrect bool   `json:"isCorrect" msgpack:"isCorrect"`
	Pos       Vec    `json:"position" msgpack:"position"`
	Vel       Vec    `json:"velocity" msgpack:"velocity"`
}

// Round is one play-through, from word selection to win or loss.
// A Round value is never mutated once it has been returned by the reducer;
// every transition builds a new one.
type Round struct {
	// Seq is bumped on every start/restart; timer events carry it.
	Seq        uint64   `json:"seq" msgpack:"seq"`
	Phase      Phase    `json:"phase" msgpack:"phase"`
	TargetWord string   `json:"targetWord" msgpack:"targetWord"`
	Popped     []string `json:"poppedLetters" msgpack:"poppedLetters"`
	Bubbles    []Bubble `json:"bubbles" msgpack:"bubbles"`
	Viewport   Bounds   `json:"viewport" msgpack:"viewport"`
	BubbleSize float64  `json:"bubbleSize" msgpack:"bubbleSize"`
}

// HasPopped reports whether char has already been popped this round.
func (r Round) HasPopped(char string) bool {
	return slices.Contains(r.Popped, char)
}

// Bubble looks up a live bubble by id.
func (r Round) Bubble(id string) (Bubble, bool) {
	for _, b := range r.Bubbles {
		if b.ID == id {
			return b, true
		}
	}
	return Bubble{}, false
}

// Remaining returns the distinct target letters not popped yet, in word order.
func (r Round) Remaining() []string {
	var out []string
	for _, c := range UniqueLetters(r.TargetWord) {
		if !r.HasPopped(c) {
			out = append(out, c)
		}
	}
	return out
}

// EventKind names the inputs the round reducer understands.
type EventKind string

const (
	EventStart        EventKind = "start"
	EventRestart      EventKind = "restart"
	EventFlashElapsed EventKind = "flashElapsed"
	EventTick         EventKind = "tick"
	EventPop          EventKind = "pop"
)

// Event is one input to Rules.Apply.
//   - start/restart: Viewport optionally replaces the round's viewport.
//   - flashElapsed/tick: Seq must match the round, otherwise the event is stale.
//   - pop: BubbleID names the target.
type Event struct {
	Kind     EventKind
	Seq      uint64
	BubbleID string
	Viewport *Bounds
}

// Cue is the audio side effect of a transition.
type Cue string

const (
	CueNone    Cue = ""
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
)

// CuePlayer plays the audio cues. Calls are fire-and-forget.
type CuePlayer interface {
	PlayCorrect()
	PlayWrong()
}
