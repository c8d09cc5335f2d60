package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"pubgame-service/internal/domain"
	"pubgame-service/internal/game"
)

// Inbound is a raw realtime event before its payload is interpreted.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Dispatcher interprets director and player events: it executes them against
// the session document (one read-modify-write per event, serialized per game
// code) and fans the resulting state delta out through the registry.
// Unknown event names are ignored without error.
type Dispatcher struct {
	registry *Registry
	store    game.SessionStore
	locks    *game.KeyedMutex
	now      func() time.Time
}

func NewDispatcher(registry *Registry, store game.SessionStore, locks *game.KeyedMutex) *Dispatcher {
	return &Dispatcher{registry: registry, store: store, locks: locks, now: time.Now}
}

// HandleDirectorEvent executes one event from a director channel.
func (d *Dispatcher) HandleDirectorEvent(ctx context.Context, code string, in Inbound) {
	switch in.Event {
	case "game:start":
		d.mutate(ctx, code, func(s *domain.Session) error {
			return game.Start(s, d.now())
		}, Envelope{Event: "game:started", Data: map[string]any{"game_code": code}})

	case "game:pause":
		d.mutate(ctx, code, game.Pause, Envelope{Event: "game:paused", Data: map[string]any{}})

	case "game:resume":
		d.mutate(ctx, code, game.Resume, Envelope{Event: "game:resumed", Data: map[string]any{}})

	case "game:finish":
		d.finish(ctx, code)

	case "question:next":
		d.changeQuestion(ctx, code, func(s *domain.Session) int {
			return game.Advance(s, 1)
		})

	case "question:previous":
		d.changeQuestion(ctx, code, func(s *domain.Session) int {
			return game.Advance(s, -1)
		})

	case "question:goto":
		var payload struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal(in.Data, &payload); err != nil {
			return
		}
		d.changeQuestion(ctx, code, func(s *domain.Session) int {
			game.Goto(s, payload.Index)
			return payload.Index
		})

	case "answer:reveal":
		d.relay(code, Envelope{Event: "answer:revealed", Data: rawData(in.Data)})

	case "leaderboard:show":
		session, err := d.store.GetByCode(ctx, code)
		if err != nil {
			log.Printf("leaderboard:show %s: %v", code, err)
			return
		}
		d.relay(code, Envelope{Event: "leaderboard:update", Data: game.Leaderboard(session)})

	case "display:state":
		d.logSendErrors(d.registry.SendToRole(code, RoleDisplay, Envelope{
			Event: "display:state", Data: rawData(in.Data),
		}))

	case "timer:start":
		d.relay(code, Envelope{Event: "timer:started", Data: rawData(in.Data)})

	case "timer:stop":
		d.relay(code, Envelope{Event: "timer:stopped", Data: map[string]any{}})

	case "player:eliminate":
		var payload struct {
			PlayerID string `json:"player_id"`
		}
		if err := json.Unmarshal(in.Data, &payload); err != nil || payload.PlayerID == "" {
			return
		}
		d.eliminate(ctx, code, payload.PlayerID)

	case "survey:reveal":
		d.relay(code, Envelope{Event: "survey:answer_revealed", Data: rawData(in.Data)})

	case "survey:strike":
		d.relay(code, Envelope{Event: "survey:strike", Data: rawData(in.Data)})
	}
}

// HandlePlayerEvent executes one event from a player channel.
func (d *Dispatcher) HandlePlayerEvent(ctx context.Context, code, playerID string, in Inbound) {
	switch in.Event {
	case "answer:submit":
		// Raw submissions are relayed to directors only; grading happens on
		// the synchronous HTTP path.
		var payload struct {
			Answer        any     `json:"answer"`
			TimeTaken     float64 `json:"time_taken"`
			QuestionIndex *int    `json:"question_index"`
		}
		if err := json.Unmarshal(in.Data, &payload); err != nil {
			return
		}
		session, err := d.store.GetByCode(ctx, code)
		if err != nil {
			return
		}
		idx := session.FindPlayer(playerID)
		if idx < 0 {
			return
		}
		questionIndex := session.CurrentQuestionIndex
		if payload.QuestionIndex != nil {
			questionIndex = *payload.QuestionIndex
		}
		d.logSendErrors(d.registry.SendToRole(code, RoleDirector, Envelope{
			Event: "player:answered",
			Data: map[string]any{
				"player_id":      playerID,
				"player_name":    session.Players[idx].Name,
				"answer":         payload.Answer,
				"time_taken":     payload.TimeTaken,
				"question_index": questionIndex,
			},
		}))

	case "buzzer:press":
		// First-processed-wins: the press is relayed in dispatch order with
		// no timestamp arbitration between concurrent channels.
		d.logSendErrors(d.registry.SendToRole(code, RoleDirector, Envelope{
			Event: "buzzer:pressed",
			Data: map[string]any{
				"player_id": playerID,
				"timestamp": d.now().UTC().Format(time.RFC3339Nano),
			},
		}))
		d.relay(code, Envelope{Event: "buzzer:winner", Data: map[string]any{"player_id": playerID}})
	}
}

// mutate runs one locked read-modify-write against the session document and
// broadcasts the outcome when the transition succeeds.
func (d *Dispatcher) mutate(ctx context.Context, code string, op func(*domain.Session) error, out Envelope) {
	unlock := d.locks.Lock(code)
	defer unlock()

	session, err := d.store.GetByCode(ctx, code)
	if err != nil {
		log.Printf("dispatch %s %s: %v", out.Event, code, err)
		return
	}
	if err := op(&session); err != nil {
		log.Printf("dispatch %s %s: %v", out.Event, code, err)
		return
	}
	if err := d.store.Save(ctx, session); err != nil {
		log.Printf("dispatch %s %s: save: %v", out.Event, code, err)
		return
	}
	d.relay(code, out)
}

func (d *Dispatcher) changeQuestion(ctx context.Context, code string, op func(*domain.Session) int) {
	unlock := d.locks.Lock(code)
	defer unlock()

	session, err := d.store.GetByCode(ctx, code)
	if err != nil {
		log.Printf("dispatch question change %s: %v", code, err)
		return
	}
	index := op(&session)
	if err := d.store.Save(ctx, session); err != nil {
		log.Printf("dispatch question change %s: save: %v", code, err)
		return
	}
	d.relay(code, Envelope{Event: "question:changed", Data: map[string]any{"question_index": index}})
}

func (d *Dispatcher) finish(ctx context.Context, code string) {
	unlock := d.locks.Lock(code)
	defer unlock()

	session, err := d.store.GetByCode(ctx, code)
	if err != nil {
		log.Printf("dispatch game:finish %s: %v", code, err)
		return
	}
	leaderboard := game.Finish(&session, d.now())
	if err := d.store.Save(ctx, session); err != nil {
		log.Printf("dispatch game:finish %s: save: %v", code, err)
		return
	}
	var winner any
	if len(leaderboard) > 0 {
		winner = leaderboard[0]
	}
	d.relay(code, Envelope{Event: "game:finished", Data: map[string]any{
		"winner":            winner,
		"final_leaderboard": leaderboard,
	}})
}

func (d *Dispatcher) eliminate(ctx context.Context, code, playerID string) {
	unlock := d.locks.Lock(code)
	defer unlock()

	session, err := d.store.GetByCode(ctx, code)
	if err != nil {
		log.Printf("dispatch player:eliminate %s: %v", code, err)
		return
	}
	idx := session.FindPlayer(playerID)
	if idx < 0 {
		return
	}
	session.Players[idx].Eliminated = true
	if err := d.store.Save(ctx, session); err != nil {
		log.Printf("dispatch player:eliminate %s: save: %v", code, err)
		return
	}
	d.relay(code, Envelope{Event: "player:eliminated", Data: map[string]any{"player_id": playerID}})
}

func (d *Dispatcher) relay(code string, msg Envelope) {
	d.logSendErrors(d.registry.Broadcast(code, msg, nil))
}

func (d *Dispatcher) logSendErrors(errs []SendError) {
	for _, e := range errs {
		log.Printf("realtime send failed: %v", e)
	}
}

// rawData passes an inbound payload through unmodified, keeping `{}` for
// events that carry none.
func rawData(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{}
	}
	return raw
}
