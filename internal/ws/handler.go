package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hide-and-seek/internal/engine"
	"github.com/DoyleJ11/hide-and-seek/internal/hub"
	"github.com/DoyleJ11/hide-and-seek/internal/session"
	"github.com/DoyleJ11/hide-and-seek/internal/types"
)

const (
	writeTimeout   = 3 * time.Second
	deliverTimeout = 3 * time.Second
)

// Handler upgrades a participant connection for the session named by the
// code query parameter. The user and name parameters carry the identity the
// messaging platform vouched for.
func Handler(h *hub.Hub, srv *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code, user := q.Get("code"), q.Get("user")
		if code == "" || user == "" {
			http.Error(w, "missing code or user", http.StatusBadRequest)
			return
		}
		name := q.Get("name")
		if name == "" {
			name = user
		}

		sess := h.Get(r.Context(), code)
		room := srv.Room(code)
		if sess == nil || room == nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: srv.origins})
		if err != nil {
			srv.log.Debug("websocket upgrade refused", zap.String("code", code), zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c, err := room.attach(user)
		if err != nil {
			_ = conn.Close(websocket.StatusGoingAway, "session is over")
			return
		}
		defer room.detach(c)
		log := srv.log.With(zap.String("code", code), zap.String("user", user), zap.String("conn", c.id))

		// Writer goroutine
		go func() {
			for f := range c.out {
				payload, err := json.Marshal(f)
				if err != nil {
					log.Error("encode frame", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), writeTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					log.Debug("write failed", zap.Error(err))
					break
				}
			}
			// the room closed or dropped this connection
			_ = conn.Close(websocket.StatusNormalClosure, "bye")
		}()

		who := engine.Identity{ID: user, Name: name}
		reply := room.Private(user)

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				room.reply(c, types.ErrorFrame("bad json"))
				continue
			}

			m, ok := toSessionMsg(cm, who, reply)
			if !ok {
				room.reply(c, types.ErrorFrame("unknown type"))
				continue
			}

			ctx, cancel := context.WithTimeout(r.Context(), deliverTimeout)
			err = sess.Deliver(ctx, m)
			cancel()
			switch {
			case errors.Is(err, session.ErrSessionClosed):
				return
			case err != nil:
				room.reply(c, types.ErrorFrame("session busy, try again"))
			}
		}
	}
}

func toSessionMsg(m types.ClientMessage, who engine.Identity, reply session.Responder) (session.Msg, bool) {
	switch m.Type {
	case types.TypeJoin:
		return session.Join{Who: who, Reply: reply}, true
	case types.TypePress:
		if m.Control == "" {
			return nil, false
		}
		return session.Press{Who: who, Control: m.Control, Values: m.Values, Reply: reply}, true
	default:
		return nil, false
	}
}
