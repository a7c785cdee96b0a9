package web

import (
	"context"
	"net/http"
	"time"

	"github.com/Jyoti203/tic-tac-toe/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const wsWriteWait = 10 * time.Second

// wsMessage is a command sent by the browser.
type wsMessage struct {
	Type  string `json:"type"` // "move", "mode", "restart", "ping"
	Index *int   `json:"index,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// wsResponse is pushed to the browser.
type wsResponse struct {
	Type   string      `json:"type"` // "state", "update", "error", "pong"
	State  *stateView  `json:"state,omitempty"`
	Events []app.Event `json:"events,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	svc  *app.Service
	id   string
	send chan wsResponse
}

// ws streams session updates and accepts commands over a WebSocket.
func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// Subscribe before the snapshot so no update falls between them.
	updates, unsub, err := h.svc.Subscribe(ctx, chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, r, err)
		return
	}
	defer unsub()
	gs, ok := h.svc.Get(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade error: %v", err)
		return
	}

	// The snapshot goes out before any queued update.
	state := newStateView(*gs)
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(wsResponse{Type: "state", State: &state}); err != nil {
		_ = conn.Close()
		return
	}
	c := &wsClient{conn: conn, svc: h.svc, id: gs.ID, send: make(chan wsResponse, 16)}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(ctx, updates)
	}()
	c.readPump(ctx)
	cancel()
	<-done
}

func (c *wsClient) writePump(ctx context.Context, updates <-chan app.Update) {
	defer c.conn.Close()
	for {
		var msg wsResponse
		select {
		case <-ctx.Done():
			return
		case msg = <-c.send:
		case u, ok := <-updates:
			if !ok {
				return
			}
			state := newStateView(u.Session)
			msg = wsResponse{Type: "update", State: &state, Events: u.Events}
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) readPump(ctx context.Context) {
	for {
		var msg wsMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if resp, ok := c.handleMessage(msg); ok {
			select {
			case c.send <- resp:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleMessage applies a command. State changes reach the client through the
// subscription, so only errors and pongs are answered directly.
func (c *wsClient) handleMessage(msg wsMessage) (wsResponse, bool) {
	var err error
	switch msg.Type {
	case "move":
		if msg.Index == nil {
			return wsResponse{Type: "error", Error: "index is required"}, true
		}
		_, err = c.svc.Play(c.id, *msg.Index)
		if err != nil {
			return wsResponse{Type: "error", Error: moveError(err)}, true
		}
	case "mode":
		var m app.Mode
		if m, err = app.ParseMode(msg.Mode); err != nil {
			return wsResponse{Type: "error", Error: err.Error()}, true
		}
		_, err = c.svc.SetMode(c.id, m)
	case "restart":
		_, err = c.svc.Restart(c.id)
	case "ping":
		return wsResponse{Type: "pong"}, true
	default:
		return wsResponse{Type: "error", Error: "unknown message type"}, true
	}
	if err != nil {
		return wsResponse{Type: "error", Error: err.Error()}, true
	}
	return wsResponse{}, false
}
