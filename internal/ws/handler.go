// Package ws accepts websocket connections and dispatches their inbound
// envelopes to the lobby each connection is bound to. A fresh connection
// is unbound; createLobby or joinLobby binds it to exactly one lobby for
// the rest of its life.
package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/wordduel/wordduel-backend/internal/lobby"
	"github.com/wordduel/wordduel-backend/internal/protocol"
	"github.com/wordduel/wordduel-backend/internal/registry"
	"github.com/wordduel/wordduel-backend/internal/words"
)

// binding ties a connection to the lobby it joined and the identity it
// acts as.
type binding struct {
	lb       *lobby.Lobby
	playerID string
}

func Handler(reg *registry.Registry, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ep := NewEndpoint(r.Context(), conn, log)
		defer ep.Close()

		var bound *binding
		defer func() {
			if bound != nil {
				bound.lb.Disconnect(bound.playerID, ep.ID())
			}
		}()

		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm protocol.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				ep.Send(protocol.Error("bad json"))
				continue
			}

			bound = dispatch(reg, ep, bound, cm, log)
		}
	}
}

// dispatch applies one inbound envelope and returns the (possibly updated)
// lobby binding. Every failure is reported to this connection only.
func dispatch(reg *registry.Registry, ep *Endpoint, bound *binding, cm protocol.ClientMessage, log *zap.Logger) *binding {
	switch cm.Type {
	case protocol.TypeCreateLobby:
		if bound != nil {
			ep.Send(protocol.Error("already in a lobby"))
			return bound
		}
		name := strings.TrimSpace(cm.Name)
		if name == "" {
			ep.Send(protocol.Error("name is required"))
			return bound
		}
		timeLimit := lobby.TimeLimitForMode(cm.Mode)
		code, lb, err := reg.Create(words.NewQueue(cm.Words), timeLimit)
		if err != nil {
			ep.Send(protocol.Error(err.Error()))
			return bound
		}
		ep.Send(protocol.LobbyCreated(code, timeLimit))
		playerID, err := lb.Join(name, ep)
		if err != nil {
			ep.Send(protocol.Error(err.Error()))
			return bound
		}
		return &binding{lb: lb, playerID: playerID}

	case protocol.TypeJoinLobby:
		if bound != nil {
			ep.Send(protocol.Error("already in a lobby"))
			return bound
		}
		name := strings.TrimSpace(cm.Name)
		if name == "" {
			ep.Send(protocol.Error("name is required"))
			return bound
		}
		lb := reg.Lookup(strings.ToUpper(strings.TrimSpace(cm.Code)))
		if lb == nil {
			ep.Send(protocol.Error(lobby.ErrLobbyNotFound.Error()))
			return bound
		}
		playerID, err := lb.Join(name, ep)
		if err != nil {
			ep.Send(protocol.Error(err.Error()))
			return bound
		}
		return &binding{lb: lb, playerID: playerID}

	case protocol.TypeStartGame:
		if bound == nil {
			ep.Send(protocol.Error("join a lobby first"))
			return bound
		}
		bound.lb.Start(bound.playerID)
		return bound

	case protocol.TypeAnswer:
		if bound == nil {
			ep.Send(protocol.Error("join a lobby first"))
			return bound
		}
		bound.lb.Answer(bound.playerID, cm.Answer)
		return bound

	default:
		log.Debug("unknown message type", zap.String("type", cm.Type))
		ep.Send(protocol.Error("unknown message type"))
		return bound
	}
}
