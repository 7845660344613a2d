package audio

import (
	"errors"
	"io"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// Format of the encoded cue assets: 16-bit stereo.
var Format = beep.Format{SampleRate: SampleRate, NumChannels: 2, Precision: 2}

// EncodeWAV renders s to a WAV file in memory.
func EncodeWAV(s beep.Streamer) ([]byte, error) {
	var buf seekBuffer
	if err := wav.Encode(&buf, s, Format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Cue assets are rendered once per process.
var (
	assetsOnce sync.Once
	popWAV     []byte
	wrongWAV   []byte
	assetsErr  error
)

// Assets returns the encoded pop and wrong cues.
func Assets() (pop, wrong []byte, err error) {
	assetsOnce.Do(func() {
		if popWAV, assetsErr = EncodeWAV(PopSound(SampleRate)); assetsErr != nil {
			return
		}
		wrongWAV, assetsErr = EncodeWAV(WrongSound(SampleRate))
	})
	return popWAV, wrongWAV, assetsErr
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch the header sizes once the stream is drained.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("seekBuffer: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("seekBuffer: negative position")
	}
	b.pos = int(abs)
	return abs, nil
}

func (b *seekBuffer) Bytes() []byte { return b.buf }
