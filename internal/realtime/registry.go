// Package realtime keeps three client roles (director, display, player)
// synchronized against one game session: a room registry for channel
// fan-out and a dispatcher that maps inbound events onto the session state
// machine and the grading engines.
package realtime

import (
	"fmt"
	"sync"
)

// Role identifies which message group a channel belongs to.
type Role string

const (
	RoleDirector Role = "director"
	RoleDisplay  Role = "display"
	RolePlayer   Role = "player"
)

// Envelope is the wire shape of every realtime message.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Sender is the write half of a realtime channel. Implementations must be
// safe for concurrent WriteJSON calls.
type Sender interface {
	WriteJSON(v any) error
}

// SendError records one failed delivery inside a best-effort broadcast.
type SendError struct {
	Code     string
	Role     Role
	PlayerID string
	Err      error
}

func (e SendError) Error() string {
	if e.Role == RolePlayer {
		return fmt.Sprintf("send to player %s in %s: %v", e.PlayerID, e.Code, e.Err)
	}
	return fmt.Sprintf("send to %s in %s: %v", e.Role, e.Code, e.Err)
}

type room struct {
	directors map[Sender]struct{}
	displays  map[Sender]struct{}
	players   map[string]Sender
}

func (r *room) empty() bool {
	return len(r.directors) == 0 && len(r.displays) == 0 && len(r.players) == 0
}

// Registry tracks live channels per game code, partitioned by role. It is
// constructed by the serving process and injected where needed; there is no
// package-level instance. Rooms are created lazily on first connect and
// reaped once their last channel disconnects.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

func (g *Registry) ensureRoom(code string) *room {
	r, ok := g.rooms[code]
	if !ok {
		r = &room{
			directors: make(map[Sender]struct{}),
			displays:  make(map[Sender]struct{}),
			players:   make(map[string]Sender),
		}
		g.rooms[code] = r
	}
	return r
}

// ConnectDirector registers a director channel with a game room.
func (g *Registry) ConnectDirector(code string, ch Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureRoom(code).directors[ch] = struct{}{}
}

// ConnectDisplay registers a shared-display channel with a game room.
func (g *Registry) ConnectDisplay(code string, ch Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensureRoom(code).displays[ch] = struct{}{}
}

// ConnectPlayer registers a player channel and notifies the room. The
// player:joined broadcast completes before ConnectPlayer returns, so the
// join is observable by the time the caller resumes.
func (g *Registry) ConnectPlayer(code, playerID string, ch Sender) []SendError {
	g.mu.Lock()
	r := g.ensureRoom(code)
	r.players[playerID] = ch
	count := len(r.players)
	g.mu.Unlock()

	return g.Broadcast(code, Envelope{
		Event: "player:joined",
		Data: map[string]any{
			"player_id":     playerID,
			"players_count": count,
		},
	}, nil)
}

// DisconnectDirector removes a director channel, reaping an emptied room.
func (g *Registry) DisconnectDirector(code string, ch Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[code]; ok {
		delete(r.directors, ch)
		if r.empty() {
			delete(g.rooms, code)
		}
	}
}

// DisconnectDisplay removes a display channel, reaping an emptied room.
func (g *Registry) DisconnectDisplay(code string, ch Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[code]; ok {
		delete(r.displays, ch)
		if r.empty() {
			delete(g.rooms, code)
		}
	}
}

// DisconnectPlayer removes a player channel, reaping an emptied room.
func (g *Registry) DisconnectPlayer(code, playerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if r, ok := g.rooms[code]; ok {
		delete(r.players, playerID)
		if r.empty() {
			delete(g.rooms, code)
		}
	}
}

// Broadcast delivers a message to every channel in a room, skipping exclude.
// Delivery is best-effort: a failed send is recorded and the remaining
// channels still receive the message. Failures never drop a channel from the
// registry; only an explicit disconnect does.
func (g *Registry) Broadcast(code string, msg Envelope, exclude Sender) []SendError {
	targets := g.snapshot(code, "")
	var errs []SendError
	for _, t := range targets {
		if t.ch == exclude {
			continue
		}
		if err := t.ch.WriteJSON(msg); err != nil {
			errs = append(errs, SendError{Code: code, Role: t.role, PlayerID: t.playerID, Err: err})
		}
	}
	return errs
}

// SendToRole delivers a message to every channel of one role in a room.
func (g *Registry) SendToRole(code string, role Role, msg Envelope) []SendError {
	targets := g.snapshot(code, role)
	var errs []SendError
	for _, t := range targets {
		if err := t.ch.WriteJSON(msg); err != nil {
			errs = append(errs, SendError{Code: code, Role: t.role, PlayerID: t.playerID, Err: err})
		}
	}
	return errs
}

// SendToPlayer delivers a message to a single player channel.
func (g *Registry) SendToPlayer(code, playerID string, msg Envelope) []SendError {
	g.mu.RLock()
	var ch Sender
	if r, ok := g.rooms[code]; ok {
		ch = r.players[playerID]
	}
	g.mu.RUnlock()
	if ch == nil {
		return nil
	}
	if err := ch.WriteJSON(msg); err != nil {
		return []SendError{{Code: code, Role: RolePlayer, PlayerID: playerID, Err: err}}
	}
	return nil
}

// RoleCount reports how many channels of one role a room currently holds.
func (g *Registry) RoleCount(code string, role Role) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	if !ok {
		return 0
	}
	switch role {
	case RoleDirector:
		return len(r.directors)
	case RoleDisplay:
		return len(r.displays)
	case RolePlayer:
		return len(r.players)
	}
	return 0
}

// PlayerCount reports how many player channels a room currently holds.
func (g *Registry) PlayerCount(code string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.rooms[code]; ok {
		return len(r.players)
	}
	return 0
}

// ConnectedPlayerIDs lists the ids of currently connected players.
func (g *Registry) ConnectedPlayerIDs(code string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	return ids
}

type target struct {
	ch       Sender
	role     Role
	playerID string
}

// snapshot copies the channel set under the read lock so sends happen
// without holding it. role == "" selects all three groups.
func (g *Registry) snapshot(code string, role Role) []target {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.rooms[code]
	if !ok {
		return nil
	}
	var targets []target
	if role == "" || role == RoleDirector {
		for ch := range r.directors {
			targets = append(targets, target{ch: ch, role: RoleDirector})
		}
	}
	if role == "" || role == RoleDisplay {
		for ch := range r.displays {
			targets = append(targets, target{ch: ch, role: RoleDisplay})
		}
	}
	if role == "" || role == RolePlayer {
		for id, ch := range r.players {
			targets = append(targets, target{ch: ch, role: RolePlayer, playerID: id})
		}
	}
	return targets
}
