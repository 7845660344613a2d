// internal/game/spawn.go
//
// Word selection and bubble spawning.
//
// Randomness is always injected (Rand) so a seeded source reproduces a round
// exactly; nothing in this package touches a global generator.

package game

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Spawn defaults taken from the original game.
const (
	DefaultDecoyCount = 10
	DefaultBubbleSize = 60

	minSpeed = 0.1
	maxSpeed = 0.4
)

// Rand is the random source consumed by word selection and spawning.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
	Uint64() uint64
}

// NewRand returns a deterministic PCG source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SelectWord picks uniformly from list and returns it upper-cased.
func SelectWord(rng Rand, list []string) (string, error) {
	if len(list) == 0 {
		return "", ErrEmptyWordList
	}
	w := strings.ToUpper(strings.TrimSpace(list[rng.IntN(len(list))]))
	if !isUpperAlpha(w) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWord, w)
	}
	return w, nil
}

// UniqueLetters returns the distinct letters of word in order of first
// appearance.
func UniqueLetters(word string) []string {
	var out []string
	for _, r := range word {
		c := string(r)
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

// CheckCapacity verifies that word's distinct letters plus decoyCount fit in
// the alphabet.
func CheckCapacity(word string, decoyCount int) error {
	if n := len(UniqueLetters(word)); n+decoyCount > len(alphabet) {
		return fmt.Errorf("%w: %d letters + %d decoys", ErrAlphabetExhausted, n, decoyCount)
	}
	return nil
}

// CheckViewport verifies that a bubble fits inside bounds. NaN and infinite
// sizes are rejected: positions spawned in them cannot be encoded.
func CheckViewport(bounds Bounds, size float64) error {
	if !(bounds.Width > size && bounds.Height > size) || math.IsInf(bounds.Width, 0) || math.IsInf(bounds.Height, 0) {
		return fmt.Errorf("%w: %gx%g for size %g", ErrViewportTooSmall, bounds.Width, bounds.Height, size)
	}
	return nil
}

// SpawnBubbles builds the initial bubbles for word: one correct bubble per
// distinct letter (word order), then decoyCount decoys drawn without
// replacement from the unused letters. No two bubbles share a letter.
func SpawnBubbles(rng Rand, word string, decoyCount int, bounds Bounds, size float64) ([]Bubble, error) {
	if !isUpperAlpha(word) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWord, word)
	}
	if decoyCount < 0 {
		decoyCount = 0
	}
	if err := CheckCapacity(word, decoyCount); err != nil {
		return nil, err
	}
	if err := CheckViewport(bounds, size); err != nil {
		return nil, err
	}

	letters := UniqueLetters(word)
	out := make([]Bubble, 0, len(letters)+decoyCount)
	seen := make(map[string]struct{}, cap(out))

	for _, c := range letters {
		out = append(out, newBubble(rng, seen, c, true, bounds, size))
	}

	var pool []string
	for _, r := range alphabet {
		if c := string(r); !slices.Contains(letters, c) {
			pool = append(pool, c)
		}
	}
	for i := 0; i < decoyCount; i++ {
		k := rng.IntN(len(pool))
		c := pool[k]
		pool = slices.Delete(pool, k, k+1)
		out = append(out, newBubble(rng, seen, c, false, bounds, size))
	}
	return out, nil
}

func newBubble(rng Rand, seen map[string]struct{}, char string, correct bool, bounds Bounds, size float64) Bubble {
	return Bubble{
		ID:        bubbleID(rng, seen),
		Char:      char,
		IsCorrect: correct,
		Pos: Vec{
			X: rng.Float64() * (bounds.Width - size),
			Y: rng.Float64() * (bounds.Height - size),
		},
		Vel: Vec{X: drift(rng), Y: drift(rng)},
	}
}

// drift returns sign * magnitude with magnitude in [minSpeed, maxSpeed).
func drift(rng Rand) float64 {
	m := minSpeed + rng.Float64()*(maxSpeed-minSpeed)
	if rng.IntN(2) == 0 {
		return -m
	}
	return m
}

// bubbleID returns a 16-hex-char id not present in seen, and records it.
func bubbleID(rng Rand, seen map[string]struct{}) string {
	for {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], rng.Uint64())
		id := hex.EncodeToString(b[:])
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			return id
		}
	}
}

// isUpperAlpha reports whether s is non-empty and all A-Z.
func isUpperAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
