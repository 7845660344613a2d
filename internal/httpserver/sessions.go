// internal/httpserver/sessions.go
//
// Round session endpoints.
//   - POST   /sessions              {width,height} → {sessionId, token, round}
//   - GET    /sessions/{id}         current round snapshot
//   - POST   /sessions/{id}/start   intro → flash
//   - POST   /sessions/{id}/restart won|lost → flash (optional {width,height})
//   - POST   /sessions/{id}/pop     {bubbleId}
//   - DELETE /sessions/{id}         close the session
//
// Start/restart responses carry the flash-phase round; bubbles appear once
// the flash timer fires, observable through GET or the socket.

package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	mrand "math/rand/v2"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bubble-popper/internal/audio"
	"github.com/robalobadob/bubble-popper/internal/game"
)

// viewportReq is the optional body of create/start/restart.
type viewportReq struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (v viewportReq) bounds() *game.Bounds {
	if v.Width == 0 && v.Height == 0 {
		return nil
	}
	return &game.Bounds{Width: v.Width, Height: v.Height}
}

type createRes struct {
	SessionID string     `json:"sessionId"`
	Token     string     `json:"token"`
	Round     game.Round `json:"round"`
}

type popReq struct {
	BubbleID string `json:"bubbleId"`
}

// roundRes is the body of every state-returning session endpoint.
type roundRes struct {
	Round game.Round `json:"round"`
}

// decodeOptional decodes a JSON body into v; an empty body is fine.
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleCreateSession creates a session in intro and issues its token.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req viewportReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		writeError(w, http.StatusBadRequest, "width and height are required")
		return
	}

	sess := s.newSession(game.Bounds{Width: req.Width, Height: req.Height})
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	tok, exp, err := s.tokens.sign(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	setTokenCookie(w, tok, exp)
	log.Info().Str("session", sess.ID).Float64("width", req.Width).Float64("height", req.Height).Msg("session created")

	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createRes{SessionID: sess.ID, Token: tok, Round: sess.Snapshot()})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(roundRes{Round: sessionFrom(r.Context()).Snapshot()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	_ = s.store.Delete(r.Context(), sess.ID)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.handleBegin(w, r, (*game.Session).Start)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.handleBegin(w, r, (*game.Session).Restart)
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request, begin func(*game.Session, *game.Bounds) (game.Round, error)) {
	var req viewportReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	round, err := begin(sessionFrom(r.Context()), req.bounds())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(roundRes{Round: round})
}

func (s *Server) handlePop(w http.ResponseWriter, r *http.Request) {
	var req popReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	round, err := sessionFrom(r.Context()).Pop(req.BubbleID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(roundRes{Round: round})
}

// newSession builds a session with its own random source. Cues travel to
// clients inside updates, so the server plays nothing itself.
func (s *Server) newSession(vp game.Bounds) *game.Session {
	rules := game.NewRules(s.opts.Words, game.NewRand(s.seeds.next()))
	if s.opts.DecoyCount > 0 {
		rules.DecoyCount = s.opts.DecoyCount
	}
	if s.opts.BubbleSize > 0 {
		rules.BubbleSize = s.opts.BubbleSize
	}
	return game.NewSession(genID(), rules, vp, game.SessionConfig{
		FlashDelay:   s.opts.FlashDelay,
		TickInterval: s.opts.TickInterval,
		Scheduler:    s.opts.Scheduler,
		Cues:         audio.Nop{},
	})
}

// seedSource hands out per-session seeds: sequential from a fixed base when
// RNG_SEED is set (reproducible runs), random otherwise.
type seedSource struct {
	mu   sync.Mutex
	base uint64
	n    uint64
}

func newSeedSource(base uint64) *seedSource { return &seedSource{base: base} }

func (ss *seedSource) next() uint64 {
	if ss.base == 0 {
		return mrand.Uint64()
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.n++
	return ss.base + ss.n
}

// genID creates a 32-char hex, crypto-random session identifier.
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
