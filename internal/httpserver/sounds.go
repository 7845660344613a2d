package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/audio"
)

// handleSound serves the synthesized cue for /sounds/{pop,wrong}.wav.
func handleSound(w http.ResponseWriter, r *http.Request) {
	pop, wrong, err := audio.Assets()
	if err != nil {
		log.Error().Err(err).Msg("encode cue audio")
		writeError(w, http.StatusInternalServerError, "audio_unavailable")
		return
	}
	var body []byte
	switch chi.URLParam(r, "name") {
	case "pop.wav":
		body = pop
	case "wrong.wav":
		body = wrong
	default:
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(body)
}
