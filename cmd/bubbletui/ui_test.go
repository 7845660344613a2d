package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/robalobadob/bubble-popper/internal/game"
)

func newScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(cols, rows)
	t.Cleanup(screen.Fini)
	return screen
}

// rowText returns the runes of screen row y as a string.
func rowText(screen tcell.Screen, y int) string {
	cols, _ := screen.Size()
	var b strings.Builder
	for x := 0; x < cols; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func screenText(screen tcell.Screen) string {
	_, rows := screen.Size()
	var lines []string
	for y := 0; y < rows; y++ {
		lines = append(lines, rowText(screen, y))
	}
	return strings.Join(lines, "\n")
}

func TestViewportFor(t *testing.T) {
	if got := viewportFor(80, 25); got != (game.Bounds{Width: 800, Height: 480}) {
		t.Errorf("viewportFor(80,25) = %+v", got)
	}
	if got := viewportFor(10, 0); got.Height != 0 {
		t.Errorf("negative height: %+v", got)
	}
}

func TestCellMapping(t *testing.T) {
	for _, tc := range []struct{ col, row int }{{0, 1}, {5, 3}, {79, 24}} {
		c, r := cellOf(worldAt(tc.col, tc.row))
		if c != tc.col || r != tc.row {
			t.Errorf("cellOf(worldAt(%d,%d)) = (%d,%d)", tc.col, tc.row, c, r)
		}
	}
}

func TestBubbleAt(t *testing.T) {
	r := game.Round{
		Phase:      game.PhasePlay,
		BubbleSize: 60,
		Bubbles: []game.Bubble{
			{ID: "a", Char: "A", Pos: game.Vec{X: 100, Y: 40}},
			{ID: "b", Char: "B", Pos: game.Vec{X: 130, Y: 40}},
		},
	}
	tests := []struct {
		col, row int
		want     string
	}{
		{10, 3, "a"}, // world (105, 50): only a
		{14, 3, "b"}, // world (145, 50): both overlap, b on top
		{18, 5, "b"}, // world (185, 90)
		{19, 3, ""},  // world (195, 50): right of b
		{10, 0, ""},  // status line
		{10, 6, ""},  // world (105, 110): below both
	}
	for _, tc := range tests {
		got, ok := bubbleAt(r, tc.col, tc.row)
		if got != tc.want || ok != (tc.want != "") {
			t.Errorf("bubbleAt(%d,%d) = %q,%v want %q", tc.col, tc.row, got, ok, tc.want)
		}
	}
}

func TestRenderPhases(t *testing.T) {
	screen := newScreen(t, 100, 30)
	tests := []struct {
		round game.Round
		want  []string
	}{
		{game.Round{Phase: game.PhaseIntro}, []string{title, "[Enter] Start Game"}},
		{game.Round{Phase: game.PhaseFlash, TargetWord: "CAT"}, []string{"C A T"}},
		{game.Round{Phase: game.PhaseWon, TargetWord: "CAT"}, []string{"You Won!", "word: CAT"}},
		{game.Round{Phase: game.PhaseLost, TargetWord: "CAT"}, []string{"Game Over"}},
	}
	for _, tc := range tests {
		render(screen, tc.round)
		text := screenText(screen)
		for _, w := range tc.want {
			if !strings.Contains(text, w) {
				t.Errorf("%s screen missing %q", tc.round.Phase, w)
			}
		}
	}
}

func TestRenderBubble(t *testing.T) {
	screen := newScreen(t, 40, 12)
	render(screen, game.Round{
		Phase:      game.PhasePlay,
		BubbleSize: 60,
		Popped:     []string{"C"},
		Bubbles:    []game.Bubble{{ID: "x", Char: "Q", Pos: game.Vec{X: 100, Y: 40}}},
	})
	// 6x3 block from (10,3); letter in the middle.
	if r, _, style, _ := screen.GetContent(13, 4); r != 'Q' || style != styleBubble {
		t.Errorf("centre cell = %q", r)
	}
	if _, _, style, _ := screen.GetContent(10, 3); style != styleBubble {
		t.Error("top-left of bubble not painted")
	}
	if _, _, style, _ := screen.GetContent(16, 3); style == styleBubble {
		t.Error("bubble painted past its width")
	}
	if !strings.Contains(rowText(screen, 0), "popped: C") {
		t.Errorf("status = %q", rowText(screen, 0))
	}
}

// heldScheduler never fires on its own; tests trigger the flash timer.
type heldScheduler struct{ after []func() }

func (h *heldScheduler) After(_ time.Duration, fn func()) game.Cancel {
	h.after = append(h.after, fn)
	return func() {}
}
func (h *heldScheduler) Every(time.Duration, func()) game.Cancel { return func() {} }

func TestClientKeysAndClicks(t *testing.T) {
	screen := newScreen(t, 100, 30)
	sched := &heldScheduler{}
	logger := zerolog.Nop()
	sess := game.NewSession("tui", game.NewRules([]string{"cat"}, game.NewRand(2)), viewportFor(100, 30), game.SessionConfig{
		Scheduler: sched,
		Logger:    &logger,
	})
	defer sess.Close()
	c := newClient(screen, sess)

	if !c.handle(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Fatal("enter quit the client")
	}
	if sess.Snapshot().Phase != game.PhaseFlash {
		t.Fatalf("phase after enter = %s", sess.Snapshot().Phase)
	}
	sched.after[0]()
	c.round = sess.Snapshot()

	// Click the centre of the first decoy.
	for _, b := range c.round.Bubbles {
		if !b.IsCorrect {
			col, row := cellOf(b.Pos.Add(game.Vec{X: 30, Y: 30}))
			id, _ := bubbleAt(c.round, col, row)
			c.click(col, row)
			if id == b.ID && sess.Snapshot().Phase != game.PhaseLost {
				t.Errorf("clicking decoy %s did not lose", b.Char)
			}
			break
		}
	}

	if c.handle(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape did not quit")
	}
}
