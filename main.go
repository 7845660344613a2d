// main.go
//
// bubble-popper server: loads configuration and the word list, then serves
// round sessions over HTTP and WebSocket until interrupted.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/config"
	"github.com/robalobadob/bubble-popper/internal/game"
	"github.com/robalobadob/bubble-popper/internal/httpserver"
	"github.com/robalobadob/bubble-popper/internal/store"
	"github.com/robalobadob/bubble-popper/internal/words"
)

func main() {
	cfg := config.Load()
	cfg.SetupLogging(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := words.Init(ctx, words.Options{File: cfg.WordsFile, DB: cfg.WordsDB, Disable: cfg.WordsDisable}); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	// A word that cannot fit with its decoys would fail every round it is
	// picked for; refuse to start instead.
	for _, w := range words.List() {
		if err := game.CheckCapacity(w, cfg.DecoyCount); err != nil {
			log.Fatal().Err(err).Str("word", w).Int("decoys", cfg.DecoyCount).Msg("word list incompatible with decoy count")
		}
	}

	mem := store.NewMemoryStore()
	go store.RunReaper(ctx, mem, time.Minute, cfg.SessionTTL)

	srv := httpserver.New(httpserver.Options{
		Store:        mem,
		Words:        words.List(),
		DecoyCount:   cfg.DecoyCount,
		BubbleSize:   cfg.BubbleSize,
		FlashDelay:   cfg.FlashDelay,
		TickInterval: cfg.TickInterval,
		Seed:         cfg.Seed,
		ClientOrigin: cfg.ClientOrigin,
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.TokenTTL,
	})
	log.Info().Str("port", cfg.Port).Int("words", words.Stats()).Msg("starting bubble-popper")
	if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}
