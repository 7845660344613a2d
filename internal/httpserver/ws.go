// internal/httpserver/ws.go
//
// GET /sessions/{id}/ws streams round updates to the client and accepts
// player input on the same socket.
//
// Frames (JSON text by default, msgpack binary with ?codec=msgpack):
//   server → client  {type:"round", round, cue}    after every state change
//                    {type:"error", error}         a rejected client message
//   client → server  {type:"start"|"restart", width?, height?}
//                    {type:"pop", bubbleId}
//
// Slow clients skip intermediate ticks; cues are never dropped (see
// game.Session.Subscribe).

package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/robalobadob/bubble-popper/internal/game"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 4096
)

// wsFrame is the envelope of every message in both directions.
type wsFrame struct {
	Type     string      `json:"type" msgpack:"type"`
	Round    *game.Round `json:"round,omitempty" msgpack:"round,omitempty"`
	Cue      game.Cue    `json:"cue,omitempty" msgpack:"cue,omitempty"`
	Error    string      `json:"error,omitempty" msgpack:"error,omitempty"`
	BubbleID string      `json:"bubbleId,omitempty" msgpack:"bubbleId,omitempty"`
	Width    float64     `json:"width,omitempty" msgpack:"width,omitempty"`
	Height   float64     `json:"height,omitempty" msgpack:"height,omitempty"`
}

// codec encodes frames for one connection.
type codec struct {
	binary bool
}

func (c codec) encode(f wsFrame) (int, []byte, error) {
	if c.binary {
		b, err := msgpack.Marshal(&f)
		return websocket.BinaryMessage, b, err
	}
	b, err := json.Marshal(f)
	return websocket.TextMessage, b, err
}

// decode accepts either encoding, chosen by the message type.
func (c codec) decode(mt int, data []byte) (wsFrame, error) {
	var f wsFrame
	if mt == websocket.BinaryMessage {
		return f, msgpack.Unmarshal(data, &f)
	}
	return f, json.Unmarshal(data, &f)
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	codec codec
}

func (c *wsConn) send(f wsFrame) error {
	mt, b, err := c.codec.encode(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(mt, b)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.opts.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		log.Warn().Err(err).Str("session", sess.ID).Msg("websocket upgrade")
		return
	}
	c := &wsConn{conn: conn, codec: codec{binary: r.URL.Query().Get("codec") == "msgpack"}}
	logger := log.With().Str("session", sess.ID).Bool("msgpack", c.codec.binary).Logger()
	logger.Info().Msg("socket opened")

	updates, stop := sess.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pump(c, updates)
	}()

	s.readLoop(c, sess)
	stop()
	<-done
	_ = conn.Close()
	logger.Info().Msg("socket closed")
}

// pump forwards session updates and keepalive pings until the subscription
// ends or a write fails.
func (s *Server) pump(c *wsConn, updates <-chan game.Update) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				c.mu.Lock()
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				c.mu.Unlock()
				_ = c.conn.Close()
				return
			}
			round := u.Round
			if err := c.send(wsFrame{Type: "round", Round: &round, Cue: u.Cue}); err != nil {
				_ = c.conn.Close()
				return
			}
		case <-ticker.C:
			if err := c.ping(); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

// readLoop applies client messages until the socket fails.
func (s *Server) readLoop(c *wsConn, sess *game.Session) {
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("session", sess.ID).Msg("socket read")
			}
			return
		}
		in, err := c.codec.decode(mt, data)
		if err != nil {
			_ = c.send(wsFrame{Type: "error", Error: "bad_message"})
			continue
		}

		vp := viewportReq{Width: in.Width, Height: in.Height}.bounds()
		switch in.Type {
		case "start":
			_, err = sess.Start(vp)
		case "restart":
			_, err = sess.Restart(vp)
		case "pop":
			_, err = sess.Pop(in.BubbleID)
		default:
			_ = c.send(wsFrame{Type: "error", Error: "unknown_type"})
			continue
		}
		if err != nil {
			_ = c.send(wsFrame{Type: "error", Error: errorCode(err)})
		}
	}
}
