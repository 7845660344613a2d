// Command bubbletui plays Word Bubble Popper in a terminal.
//
// It runs a local round session and renders it with tcell: click bubbles to
// pop them, Enter starts or restarts a round, Esc or Ctrl-C quits. Cues play
// on the local speaker when one is available. Logs go to BUBBLETUI_LOG when
// set and are discarded otherwise, since the terminal belongs to the game.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/audio/device"
	"github.com/robalobadob/bubble-popper/internal/config"
	"github.com/robalobadob/bubble-popper/internal/game"
	"github.com/robalobadob/bubble-popper/internal/words"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bubbletui:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	var logOut io.Writer = io.Discard
	if path := os.Getenv("BUBBLETUI_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	cfg.SetupLogging(logOut)

	if err := words.Init(context.Background(), words.Options{File: cfg.WordsFile, DB: cfg.WordsDB, Disable: cfg.WordsDisable}); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.EnableMouse()

	spk := device.NewSpeaker()
	if err := spk.Init(); err != nil {
		// Non-fatal, the game runs silently
		log.Warn().Err(err).Msg("audio init failed")
	}
	defer spk.Close()

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rules := game.NewRules(words.List(), game.NewRand(seed))
	rules.DecoyCount = cfg.DecoyCount
	rules.BubbleSize = cfg.BubbleSize

	sess := game.NewSession("local", rules, viewportFor(screen.Size()), game.SessionConfig{
		FlashDelay:   cfg.FlashDelay,
		TickInterval: cfg.TickInterval,
		Cues:         spk,
	})
	defer sess.Close()

	return newClient(screen, sess).loop()
}
