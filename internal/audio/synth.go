// Package audio synthesizes the pop/wrong cues and plays them.
//
// Cues are procedural: a short rising sine blip for a correct pop and a low
// square buzz for a wrong one. The same streamers back the WAV assets served
// to browser clients and the local speaker used by the terminal client.
package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// SampleRate used for every cue.
const SampleRate = beep.SampleRate(44100)

const (
	popDuration   = 120 * time.Millisecond
	wrongDuration = 350 * time.Millisecond
)

// WaveType selects the oscillator shape.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
)

// sweep is an oscillator whose frequency moves linearly from f0 to f1.
type sweep struct {
	f0, f1   float64
	phase    float64
	position int
	duration int
	wave     WaveType
	rate     beep.SampleRate
}

func newSweep(f0, f1 float64, d time.Duration, wave WaveType, rate beep.SampleRate) *sweep {
	return &sweep{f0: f0, f1: f1, duration: rate.N(d), wave: wave, rate: rate}
}

func (o *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1
			} else {
				val = -1
			}
		}
		samples[i][0] = val
		samples[i][1] = val

		t := float64(o.position) / float64(o.duration)
		freq := o.f0 + (o.f1-o.f0)*t
		o.phase += freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *sweep) Err() error { return nil }

// envelope applies a linear attack and release to a stream.
type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

func newEnvelope(s beep.Streamer, d, attack, release time.Duration, rate beep.SampleRate) *envelope {
	return &envelope{streamer: s, attack: rate.N(attack), release: rate.N(release), total: rate.N(d)}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		vol := 1.0
		if e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if rem := e.total - e.position; rem < e.release {
			vol = math.Max(0, float64(rem)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// newVolume scales s by a linear gain; zero or less is silent.
func newVolume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}

// PopSound is the correct-pop cue: a quick upward chirp.
func PopSound(rate beep.SampleRate) beep.Streamer {
	osc := newSweep(520, 1240, popDuration, WaveSine, rate)
	return newVolume(newEnvelope(osc, popDuration, 5*time.Millisecond, 60*time.Millisecond, rate), 0.6)
}

// WrongSound is the decoy-pop cue: a falling low buzz.
func WrongSound(rate beep.SampleRate) beep.Streamer {
	osc := newSweep(180, 90, wrongDuration, WaveSquare, rate)
	return newVolume(newEnvelope(osc, wrongDuration, 10*time.Millisecond, 150*time.Millisecond, rate), 0.35)
}
