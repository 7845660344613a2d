// internal/game/pop.go
//
// Pop Handler: resolves a player's click on a bubble into a win, a loss or
// progress. Copy-on-write like the rest of the reducer.

package game

import "slices"

// HandlePop applies a player's pop to r.
//
// A correct bubble is removed and its letter recorded; the round is won once
// every distinct letter of the word has been popped. A decoy loses the round
// on the spot. Pops outside play or for ids that are already gone change
// nothing: input events can arrive after the state they were aimed at.
func HandlePop(r Round, bubbleID string) (Round, Cue) {
	if r.Phase != PhasePlay {
		return r, CueNone
	}
	idx := slices.IndexFunc(r.Bubbles, func(b Bubble) bool { return b.ID == bubbleID })
	if idx < 0 {
		return r, CueNone
	}
	b := r.Bubbles[idx]
	next := r

	if !b.IsCorrect {
		next.Phase = PhaseLost
		return next, CueWrong
	}

	next.Bubbles = slices.Delete(slices.Clone(r.Bubbles), idx, idx+1)
	if !r.HasPopped(b.Char) {
		next.Popped = append(slices.Clone(r.Popped), b.Char)
	}
	if len(next.Remaining()) == 0 {
		next.Phase = PhaseWon
	}
	return next, CueCorrect
}
