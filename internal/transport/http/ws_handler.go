package http

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"pubgame-service/internal/realtime"

	"github.com/gorilla/websocket"
)

// WSHandler exposes one websocket endpoint per client role and feeds inbound
// events to the dispatcher.
type WSHandler struct {
	registry   *realtime.Registry
	dispatcher *realtime.Dispatcher
	upgrader   websocket.Upgrader
}

func NewWSHandler(registry *realtime.Registry, dispatcher *realtime.Dispatcher) *WSHandler {
	return &WSHandler{
		registry:   registry,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsChannel serializes writes onto one gorilla connection; broadcasts from
// different dispatch goroutines would otherwise interleave frames.
type wsChannel struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// ServeDirector handles GET /ws/director/{code}.
func (h *WSHandler) ServeDirector(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := &wsChannel{conn: conn}
	h.registry.ConnectDirector(code, ch)
	defer h.registry.DisconnectDirector(code, ch)

	for {
		var in realtime.Inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		h.dispatcher.HandleDirectorEvent(r.Context(), code, in)
	}
}

// ServeDisplay handles GET /ws/display/{code}. Displays mostly receive; the
// only inbound event honored is a heartbeat, answered with a pong.
func (h *WSHandler) ServeDisplay(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := &wsChannel{conn: conn}
	h.registry.ConnectDisplay(code, ch)
	defer h.registry.DisconnectDisplay(code, ch)

	for {
		var in realtime.Inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Event == "heartbeat" {
			if err := ch.WriteJSON(realtime.Envelope{Event: "heartbeat", Data: "pong"}); err != nil {
				log.Printf("display heartbeat %s: %v", code, err)
			}
		}
	}
}

// ServePlayer handles GET /ws/player/{code}/{playerID}. Connecting announces
// player:joined to the room; disconnecting announces player:disconnected.
func (h *WSHandler) ServePlayer(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(r.PathValue("code"))
	playerID := r.PathValue("playerID")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := &wsChannel{conn: conn}
	for _, e := range h.registry.ConnectPlayer(code, playerID, ch) {
		log.Printf("realtime send failed: %v", e)
	}
	defer func() {
		h.registry.DisconnectPlayer(code, playerID)
		for _, e := range h.registry.Broadcast(code, realtime.Envelope{
			Event: "player:disconnected",
			Data:  map[string]any{"player_id": playerID},
		}, nil) {
			log.Printf("realtime send failed: %v", e)
		}
	}()

	for {
		var in realtime.Inbound
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		h.dispatcher.HandlePlayerEvent(r.Context(), code, playerID, in)
	}
}
