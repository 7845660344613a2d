package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/robalobadob/bubble-popper/internal/game"
	"github.com/robalobadob/bubble-popper/internal/store"
)

// writeError writes {"error": msg} with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	b, _ := json.Marshal(map[string]string{"error": msg})
	http.Error(w, string(b), status)
}

// statusFor maps engine errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, game.ErrEmptyWordList),
		errors.Is(err, game.ErrAlphabetExhausted),
		errors.Is(err, game.ErrViewportTooSmall),
		errors.Is(err, game.ErrInvalidWord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrSessionClosed), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// errorCode is the machine-readable error string for err.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, game.ErrEmptyWordList):
		return "empty_word_list"
	case errors.Is(err, game.ErrAlphabetExhausted):
		return "alphabet_exhausted"
	case errors.Is(err, game.ErrViewportTooSmall):
		return "viewport_too_small"
	case errors.Is(err, game.ErrInvalidWord):
		return "invalid_word"
	case errors.Is(err, game.ErrSessionClosed), errors.Is(err, store.ErrNotFound):
		return "not_found"
	}
	return "internal_error"
}

func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), errorCode(err))
}
