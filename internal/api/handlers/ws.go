package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"truck-route-service/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsCommand is the inbound client frame: subscribe to a scope or drop an
// earlier subscription by id.
type wsCommand struct {
	Action string         `json:"action"`
	Scope  realtime.Scope `json:"scope"`
	ID     string         `json:"id"`
}

type wsAck struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type WSHandler struct {
	Registry *realtime.Registry
	Log      *zap.Logger
}

// Serve upgrades the connection and bridges it to the subscription registry.
// One writer goroutine owns the socket for writes; the read loop handles
// commands and tears everything down when the client goes away.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn("ws upgrade failed", zap.Error(err))
		return
	}

	updates := make(chan realtime.Update, 32)
	acks := make(chan wsAck, 8)
	done := make(chan struct{})

	go h.writePump(conn, updates, acks, done)

	// Subscriptions owned by this connection; all are dropped on disconnect
	// so no registry entry outlives its client session.
	owned := make(map[string]struct{})

	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			break
		}

		switch cmd.Action {
		case "subscribe":
			if err := cmd.Scope.Validate(); err != nil {
				sendAck(acks, wsAck{Event: "error", Error: err.Error()})
				continue
			}
			id := h.Registry.Subscribe(cmd.Scope, updates)
			owned[id] = struct{}{}
			sendAck(acks, wsAck{Event: "subscribed", ID: id})

		case "unsubscribe":
			if _, ok := owned[cmd.ID]; !ok {
				sendAck(acks, wsAck{Event: "error", Error: "unknown subscription id"})
				continue
			}
			h.Registry.Unsubscribe(cmd.ID)
			delete(owned, cmd.ID)
			sendAck(acks, wsAck{Event: "unsubscribed", ID: cmd.ID})

		default:
			sendAck(acks, wsAck{Event: "error", Error: "unknown action"})
		}
	}

	for id := range owned {
		h.Registry.Unsubscribe(id)
	}
	close(done)
	_ = conn.Close()
}

// sendAck never blocks: if the writer is dead or backed up, the ack is
// dropped and the read loop discovers the closed socket on its next read.
func sendAck(acks chan<- wsAck, a wsAck) {
	select {
	case acks <- a:
	default:
	}
}

func (h *WSHandler) writePump(conn *websocket.Conn, updates <-chan realtime.Update, acks <-chan wsAck, done <-chan struct{}) {
	for {
		select {
		case u := <-updates:
			if err := conn.WriteJSON(u); err != nil {
				_ = conn.Close()
				return
			}
		case a := <-acks:
			if err := conn.WriteJSON(a); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}
