// internal/httpserver/tokens.go
//
// Session tokens: HS256 JWTs whose "sid" claim names the one session the
// bearer may drive. The signing key is derived from JWT_SECRET with HKDF so
// the raw secret is never used as a MAC key directly.

package httpserver

import (
	"context"
	"crypto/sha256"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/robalobadob/bubble-popper/internal/game"
)

const cookieName = "bubble_token"

var errBadToken = errors.New("invalid token")

type tokenIssuer struct {
	key []byte
	ttl time.Duration
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte("bubble-popper"), []byte("session-token"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		// hkdf only fails past 255*32 bytes of output
		panic(err)
	}
	return &tokenIssuer{key: key, ttl: ttl}
}

// sign issues a token for session sid.
func (t *tokenIssuer) sign(sid string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	})
	ss, err := tok.SignedString(t.key)
	return ss, exp, err
}

// verify returns the session id carried by a valid token.
func (t *tokenIssuer) verify(raw string) (string, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", errBadToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errBadToken
	}
	return sid, nil
}

// setTokenCookie stores the session token for browser clients.
func setTokenCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

// tokenFrom extracts a token from the Authorization header, the cookie, or
// the "token" query parameter (browsers cannot set headers on a WebSocket).
func tokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("token")
}

// ctxSessionKey is the context key type for the resolved *game.Session.
type ctxSessionKey struct{}

func sessionFrom(ctx context.Context) *game.Session {
	s, _ := ctx.Value(ctxSessionKey{}).(*game.Session)
	return s
}

// requireSession enforces a valid token whose sid matches {id} and injects
// the live session into the request context.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		sid, err := s.tokens.verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		id := chi.URLParam(r, "id")
		if sid != id {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		sess, err := s.store.Get(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
