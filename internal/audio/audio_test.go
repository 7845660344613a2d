package audio

import (
	"bytes"
	"go/parser"
	"go/token"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep"
)

func drain(t *testing.T, s beep.Streamer) [][2]float64 {
	t.Helper()
	var out [][2]float64
	buf := make([][2]float64, 512)
	for i := 0; i < 1000; i++ {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
	t.Fatal("streamer never finished")
	return nil
}

func TestCueSoundsAreBoundedAndFinite(t *testing.T) {
	tests := []struct {
		name string
		s    beep.Streamer
		want int
	}{
		{"pop", PopSound(SampleRate), SampleRate.N(popDuration)},
		{"wrong", WrongSound(SampleRate), SampleRate.N(wrongDuration)},
	}
	for _, tc := range tests {
		samples := drain(t, tc.s)
		if len(samples) != tc.want {
			t.Errorf("%s: %d samples, want %d", tc.name, len(samples), tc.want)
		}
		peak := 0.0
		for _, sm := range samples {
			for _, v := range sm {
				if math.IsNaN(v) || math.Abs(v) > 1 {
					t.Fatalf("%s: sample %v out of range", tc.name, v)
				}
				peak = math.Max(peak, math.Abs(v))
			}
		}
		if peak == 0 {
			t.Errorf("%s: silent", tc.name)
		}
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	pop, wrong, err := Assets()
	if err != nil {
		t.Fatal(err)
	}
	for name, b := range map[string][]byte{"pop": pop, "wrong": wrong} {
		if len(b) < 44 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
			t.Errorf("%s: not a WAV file (%d bytes)", name, len(b))
		}
	}
	if len(wrong) <= len(pop) {
		t.Errorf("wrong cue (%d bytes) should be longer than pop (%d bytes)", len(wrong), len(pop))
	}
}

func TestSeekBuffer(t *testing.T) {
	var b seekBuffer
	b.Write([]byte("hello world"))
	if _, err := b.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("J"))
	if _, err := b.Seek(-5, io.SeekEnd); err != nil {
		t.Fatal(err)
	}
	b.Write([]byte("W"))
	if got := string(b.Bytes()); got != "Jello World" {
		t.Errorf("buffer = %q", got)
	}
	if _, err := b.Seek(-1, io.SeekStart); err == nil {
		t.Error("expected error for negative seek")
	}
}

// The server links this package; the device backend must stay out of it.
func TestNoDeviceBackendImported(t *testing.T) {
	fset := token.NewFileSet()
	entries, err := os.ReadDir(".")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(".", name), nil, parser.ImportsOnly)
		if err != nil {
			t.Fatal(err)
		}
		for _, imp := range f.Imports {
			if path := strings.Trim(imp.Path.Value, `"`); path == "github.com/gopxl/beep/speaker" {
				t.Errorf("%s imports %s", name, path)
			}
		}
	}
}

func TestNopIsSilent(t *testing.T) {
	var n Nop
	n.PlayCorrect()
	n.PlayWrong()
}
