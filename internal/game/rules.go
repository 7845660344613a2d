// internal/game/rules.go
//
// Round state machine as a reducer: Apply(round, event) -> (round, cue, error).
//
// State transitions:
//   intro --start-------------> flash   (select word, clear popped letters)
//   flash --flashElapsed(seq)-> play    (spawn bubbles)
//   play  --tick(seq)---------> play    (one physics step)
//   play  --pop---------------> play | won | lost
//   won|lost --restart--------> flash   (same contract as start)
//
// Apply never mutates the round it is given. Configuration errors and
// disallowed start/restart events return the input round unchanged together
// with an error; stale timer events and late pops are silent no-ops.

package game

import (
	"fmt"
)

// Rules holds the round configuration and the random source. A Rules value
// is not safe for concurrent use; Session serializes access to it.
type Rules struct {
	Words      []string
	DecoyCount int
	BubbleSize float64
	Rand       Rand
}

// NewRules returns Rules with the original game's defaults.
func NewRules(words []string, rng Rand) *Rules {
	return &Rules{
		Words:      words,
		DecoyCount: DefaultDecoyCount,
		BubbleSize: DefaultBubbleSize,
		Rand:       rng,
	}
}

// NewRound returns the intro round for a presentation of the given size.
func (ru *Rules) NewRound(viewport Bounds) Round {
	return Round{
		Phase:      PhaseIntro,
		Popped:     []string{},
		Bubbles:    []Bubble{},
		Viewport:   viewport,
		BubbleSize: ru.size(),
	}
}

// Apply runs one event through the state machine.
func (ru *Rules) Apply(r Round, ev Event) (Round, Cue, error) {
	switch ev.Kind {
	case EventStart:
		if r.Phase != PhaseIntro {
			return r, CueNone, fmt.Errorf("%w: start during %s", ErrInvalidTransition, r.Phase)
		}
		return ru.begin(r, ev.Viewport)

	case EventRestart:
		if !r.Phase.Finished() {
			return r, CueNone, fmt.Errorf("%w: restart during %s", ErrInvalidTransition, r.Phase)
		}
		return ru.begin(r, ev.Viewport)

	case EventFlashElapsed:
		if r.Phase != PhaseFlash || ev.Seq != r.Seq {
			return r, CueNone, nil
		}
		bubbles, err := SpawnBubbles(ru.Rand, r.TargetWord, ru.DecoyCount, r.Viewport, r.BubbleSize)
		if err != nil {
			return r, CueNone, err
		}
		next := r
		next.Bubbles = bubbles
		next.Phase = PhasePlay
		return next, CueNone, nil

	case EventTick:
		if r.Phase != PhasePlay || ev.Seq != r.Seq {
			return r, CueNone, nil
		}
		next := r
		next.Bubbles = Step(r.Bubbles, r.Viewport, r.BubbleSize)
		return next, CueNone, nil

	case EventPop:
		next, cue := HandlePop(r, ev.BubbleID)
		return next, cue, nil
	}
	return r, CueNone, fmt.Errorf("unknown event %q", ev.Kind)
}

// begin enters flash with a freshly selected word. Every configuration
// precondition is checked here so a misconfigured round never starts.
func (ru *Rules) begin(r Round, vp *Bounds) (Round, Cue, error) {
	viewport := r.Viewport
	if vp != nil {
		viewport = *vp
	}
	size := ru.size()
	if err := CheckViewport(viewport, size); err != nil {
		return r, CueNone, err
	}
	word, err := SelectWord(ru.Rand, ru.Words)
	if err != nil {
		return r, CueNone, err
	}
	if err := CheckCapacity(word, ru.DecoyCount); err != nil {
		return r, CueNone, err
	}
	return Round{
		Seq:        r.Seq + 1,
		Phase:      PhaseFlash,
		TargetWord: word,
		Popped:     []string{},
		Bubbles:    []Bubble{},
		Viewport:   viewport,
		BubbleSize: size,
	}, CueNone, nil
}

func (ru *Rules) size() float64 {
	if ru.BubbleSize <= 0 {
		return DefaultBubbleSize
	}
	return ru.BubbleSize
}
