// internal/config/config.go
//
// Runtime configuration, read from the environment after loading an optional
// .env file (development).
//
// Environment variables (defaults in parentheses):
//   PORT          (5175)    HTTP listen port
//   LOG_LEVEL     (info)    zerolog level
//   LOG_PRETTY    (false)   human-readable console logs
//   CLIENT_ORIGIN (http://localhost:5173) CORS origin
//   JWT_SECRET    (dev_secret_change_me) session token secret
//   TOKEN_TTL     (24h)     session token lifetime
//   WORDS_FILE, WORDS_DB    word list sources (see internal/words)
//   WORDS_DISABLE           comma-separated words to switch off in WORDS_DB
//   DECOY_COUNT   (10)      decoy bubbles per round
//   BUBBLE_SIZE   (60)      bubble diameter in viewport units
//   FLASH_DELAY   (2s)      how long the target word is shown
//   TICK_INTERVAL (16ms)    physics step period
//   SESSION_TTL   (30m)     idle sessions are closed after this
//   RNG_SEED      (0)       0 seeds from the clock

package config

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds every tunable of the server and terminal client.
type Config struct {
	Port         string
	LogLevel     string
	LogPretty    bool
	ClientOrigin string
	JWTSecret    string
	TokenTTL     time.Duration
	WordsFile    string
	WordsDB      string
	WordsDisable []string
	DecoyCount   int
	BubbleSize   float64
	FlashDelay   time.Duration
	TickInterval time.Duration
	SessionTTL   time.Duration
	Seed         uint64
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:         getEnv("PORT", "5175"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    envBool("LOG_PRETTY", false),
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		TokenTTL:     envDuration("TOKEN_TTL", 24*time.Hour),
		WordsFile:    os.Getenv("WORDS_FILE"),
		WordsDB:      os.Getenv("WORDS_DB"),
		WordsDisable: envList("WORDS_DISABLE"),
		DecoyCount:   envInt("DECOY_COUNT", 10),
		BubbleSize:   float64(envInt("BUBBLE_SIZE", 60)),
		FlashDelay:   envDuration("FLASH_DELAY", 2*time.Second),
		TickInterval: envDuration("TICK_INTERVAL", 16*time.Millisecond),
		SessionTTL:   envDuration("SESSION_TTL", 30*time.Minute),
		Seed:         uint64(envInt("RNG_SEED", 0)),
	}
}

// SetupLogging points the global zerolog logger at w with the configured
// level and format.
func (c Config) SetupLogging(w io.Writer) {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		return def
	}
	return n
}

// envList splits a comma-separated value, dropping blanks.
func envList(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(os.Getenv(k))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
		return def
	}
	return d
}
