package main

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/bubble-popper/internal/game"
)

// World units per terminal cell. Cells are roughly twice as tall as wide,
// so a 60-unit bubble becomes a 6x3 block.
const (
	cellW = 10.0
	cellH = 20.0

	// Row 0 is the status line; the play field starts below it.
	fieldTop = 1
)

const (
	title   = "Word Bubble Popper"
	howTo   = "Watch the word flash on screen, then pop only the bubbles with letters in that word."
	warning = "Pop a wrong letter and it's game over!"
)

var (
	styleBase   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	styleBubble = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.NewRGBColor(219, 39, 119))
	styleTitle  = styleBase.Foreground(tcell.NewRGBColor(236, 72, 153)).Bold(true)
	styleWord   = styleBase.Foreground(tcell.ColorYellow).Bold(true)
	styleWon    = styleBase.Foreground(tcell.ColorGreen).Bold(true)
	styleLost   = styleBase.Foreground(tcell.ColorRed).Bold(true)
)

// viewportFor converts a terminal size into game bounds.
func viewportFor(cols, rows int) game.Bounds {
	h := rows - fieldTop
	if h < 0 {
		h = 0
	}
	return game.Bounds{Width: float64(cols) * cellW, Height: float64(h) * cellH}
}

// cellOf maps a world position to the screen cell containing it.
func cellOf(p game.Vec) (col, row int) {
	return int(p.X / cellW), int(p.Y/cellH) + fieldTop
}

// worldAt is the centre of screen cell (col, row) in world units.
func worldAt(col, row int) game.Vec {
	return game.Vec{X: (float64(col) + 0.5) * cellW, Y: (float64(row-fieldTop) + 0.5) * cellH}
}

// bubbleAt returns the id of the bubble under screen cell (col, row). Later
// bubbles are drawn on top, so they win.
func bubbleAt(r game.Round, col, row int) (string, bool) {
	if row < fieldTop {
		return "", false
	}
	p := worldAt(col, row)
	for i := len(r.Bubbles) - 1; i >= 0; i-- {
		b := r.Bubbles[i]
		if p.X >= b.Pos.X && p.X < b.Pos.X+r.BubbleSize && p.Y >= b.Pos.Y && p.Y < b.Pos.Y+r.BubbleSize {
			return b.ID, true
		}
	}
	return "", false
}

// render draws r onto screen. It does not call Show.
func render(screen tcell.Screen, r game.Round) {
	screen.SetStyle(styleBase)
	screen.Clear()
	cols, rows := screen.Size()

	status := " " + title
	switch r.Phase {
	case game.PhasePlay:
		status += "  |  popped: " + strings.Join(r.Popped, " ")
	case game.PhaseWon, game.PhaseLost:
		status += "  |  word: " + r.TargetWord
	}
	fill(screen, 0, cols, styleStatus)
	drawText(screen, 0, 0, status, styleStatus)

	mid := fieldTop + (rows-fieldTop)/2
	switch r.Phase {
	case game.PhaseIntro:
		centre(screen, mid-2, title, styleTitle)
		centre(screen, mid, howTo, styleBase)
		centre(screen, mid+1, warning, styleBase)
		centre(screen, mid+3, "[Enter] Start Game   [Esc] Quit", styleBase)
	case game.PhaseFlash:
		centre(screen, mid, strings.Join(strings.Split(r.TargetWord, ""), " "), styleWord)
	case game.PhasePlay:
		for _, b := range r.Bubbles {
			drawBubble(screen, b, r.BubbleSize)
		}
	case game.PhaseWon:
		centre(screen, mid, "You Won!", styleWon)
		centre(screen, mid+2, "[Enter] Play Again   [Esc] Quit", styleBase)
	case game.PhaseLost:
		centre(screen, mid, "Game Over", styleLost)
		centre(screen, mid+2, "[Enter] Play Again   [Esc] Quit", styleBase)
	}
}

func drawBubble(screen tcell.Screen, b game.Bubble, size float64) {
	cols, rows := screen.Size()
	c0, r0 := cellOf(b.Pos)
	w, h := int(size/cellW), int(size/cellH)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	for y := r0; y < r0+h; y++ {
		for x := c0; x < c0+w; x++ {
			if x < 0 || x >= cols || y < fieldTop || y >= rows {
				continue
			}
			ch := ' '
			if x == c0+w/2 && y == r0+h/2 {
				ch = []rune(b.Char)[0]
			}
			screen.SetContent(x, y, ch, nil, styleBubble)
		}
	}
}

func drawText(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	cols, _ := screen.Size()
	for _, ch := range s {
		if x >= cols {
			return
		}
		if x >= 0 {
			screen.SetContent(x, y, ch, nil, style)
		}
		x++
	}
}

func centre(screen tcell.Screen, y int, s string, style tcell.Style) {
	cols, _ := screen.Size()
	drawText(screen, (cols-len([]rune(s)))/2, y, s, style)
}

func fill(screen tcell.Screen, y, cols int, style tcell.Style) {
	for x := 0; x < cols; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
}
