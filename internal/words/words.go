// internal/words/words.go
//
// Word List provider for the round engine.
//
// Responsibilities:
//   - Load the candidate target words from the configured source.
//   - Normalize entries (trim, lowercase, letters a–z only, deduplicated).
//   - Expose the loaded list to the engine (List) and diagnostics (Stats).
//
// Sources, in priority order (Load):
//   1. Options.DB set   → SQLite word store. Options.File, when also set, is
//                          imported first; an empty store is seeded with the
//                          embedded defaults. Options.Disable switches words
//                          off in the store before it is read.
//   2. Options.File set → one word per line, '#' comments allowed.
//   3. neither          → embedded default list (assets/words.txt).
//
// The engine upper-cases on selection, so case here is irrelevant.

package words

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/assets"
	"github.com/robalobadob/bubble-popper/internal/wordstore"
)

// ErrEmpty is returned when a source yields no usable words.
var ErrEmpty = errors.New("words: list is empty")

// Options selects the word source.
type Options struct {
	File    string   // WORDS_FILE
	DB      string   // WORDS_DB
	Disable []string // WORDS_DISABLE, DB only
}

var (
	initOnce sync.Once
	loaded   []string
	initErr  error
)

// Init loads the package-level list exactly once.
func Init(ctx context.Context, opts Options) error {
	initOnce.Do(func() {
		loaded, initErr = Load(ctx, opts)
	})
	return initErr
}

// List returns the list loaded by Init.
func List() []string { return loaded }

// Stats returns the number of loaded words.
func Stats() int { return len(loaded) }

// Load reads and normalizes the word list from the source chosen by opts.
func Load(ctx context.Context, opts Options) ([]string, error) {
	var (
		list []string
		err  error
		src  string
	)
	switch {
	case opts.DB != "":
		src = "sqlite"
		list, err = loadDB(ctx, opts)
	case opts.File != "":
		src = "file"
		list, err = readWordFile(opts.File)
	default:
		src = "embedded"
		list, err = assets.WordList()
	}
	if err != nil {
		return nil, fmt.Errorf("words: load %s: %w", src, err)
	}

	list = normalize(list)
	if len(list) == 0 {
		return nil, ErrEmpty
	}
	log.Info().Str("source", src).Int("count", len(list)).Msg("word list loaded")
	return list, nil
}

func loadDB(ctx context.Context, opts Options) ([]string, error) {
	st, err := wordstore.Open(opts.DB)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}
	if opts.File != "" {
		fromFile, err := readWordFile(opts.File)
		if err != nil {
			return nil, err
		}
		n, err := st.Import(ctx, normalize(fromFile))
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", opts.File).Int("added", n).Msg("imported words")
	}

	list, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		defaults, err := assets.WordList()
		if err != nil {
			return nil, err
		}
		if _, err := st.Import(ctx, normalize(defaults)); err != nil {
			return nil, err
		}
		log.Info().Int("count", len(defaults)).Msg("seeded word store with defaults")
	}
	for _, w := range opts.Disable {
		if err := st.SetEnabled(ctx, w, false); err != nil {
			return nil, err
		}
	}
	if len(opts.Disable) > 0 {
		log.Info().Strs("words", opts.Disable).Msg("disabled words")
	}
	return st.List(ctx)
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// normalize lowercases, drops non-alphabetic entries and duplicates,
// preserving first-seen order.
func normalize(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.ToLower(strings.TrimSpace(w))
		if !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// isAlpha reports whether s is non-empty and all lowercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
