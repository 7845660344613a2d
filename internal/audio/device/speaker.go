// Package device plays cue audio on the local sound card.
//
// It is the only package that links beep's speaker backend (oto, and on
// Linux cgo + libasound), so headless binaries never depend on it.
package device

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/audio"
)

// Speaker plays cues on the local audio device. Until Init succeeds every
// Play call is a silent no-op, so a machine without audio still runs the game.
type Speaker struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSpeaker creates an uninitialized speaker.
func NewSpeaker() *Speaker {
	return &Speaker{mixer: &beep.Mixer{}}
}

// Init opens the audio device.
func (s *Speaker) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if err := speaker.Init(audio.SampleRate, audio.SampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// PlayCorrect implements game.CuePlayer.
func (s *Speaker) PlayCorrect() { s.play(audio.PopSound(audio.SampleRate)) }

// PlayWrong implements game.CuePlayer.
func (s *Speaker) PlayWrong() { s.play(audio.WrongSound(audio.SampleRate)) }

func (s *Speaker) play(st beep.Streamer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// Close stops playback and releases the device.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	s.initialized = false
	log.Debug().Msg("speaker closed")
}
