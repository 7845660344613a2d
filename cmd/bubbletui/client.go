package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/game"
)

// client connects terminal input and the session's update stream.
type client struct {
	screen tcell.Screen
	sess   *game.Session
	round  game.Round
	// message is shown on the status line until the next update.
	message string
}

func newClient(screen tcell.Screen, sess *game.Session) *client {
	return &client{screen: screen, sess: sess, round: sess.Snapshot()}
}

func (c *client) loop() error {
	updates, stop := c.sess.Subscribe()
	defer stop()

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go func() {
		for {
			ev := c.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	defer close(quit)

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			c.round = u.Round
			c.message = ""
		case ev := <-events:
			if !c.handle(ev) {
				return nil
			}
		}
		c.draw()
	}
}

// handle applies one terminal event; false means quit.
func (c *client) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyEnter:
			c.begin()
		case tcell.KeyRune:
			if ev.Rune() == 'q' && c.round.Phase != game.PhasePlay {
				return false
			}
		}
	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			c.click(x, y)
		}
	case *tcell.EventResize:
		c.screen.Sync()
	}
	return true
}

// begin starts the first round or restarts a finished one, sized to the
// current terminal.
func (c *client) begin() {
	vp := viewportFor(c.screen.Size())
	var err error
	switch {
	case c.round.Phase == game.PhaseIntro:
		_, err = c.sess.Start(&vp)
	case c.round.Phase.Finished():
		_, err = c.sess.Restart(&vp)
	default:
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("begin round")
		c.message = err.Error()
	}
}

func (c *client) click(x, y int) {
	if c.round.Phase != game.PhasePlay {
		return
	}
	if id, ok := bubbleAt(c.round, x, y); ok {
		_, _ = c.sess.Pop(id)
	}
}

func (c *client) draw() {
	render(c.screen, c.round)
	if c.message != "" {
		cols, rows := c.screen.Size()
		fill(c.screen, rows-1, cols, styleLost)
		drawText(c.screen, 1, rows-1, c.message, styleLost)
	}
	c.screen.Show()
}
