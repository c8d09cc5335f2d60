package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"pubgame-service/internal/domain"
	"pubgame-service/internal/game"
	"pubgame-service/internal/infra/memory"
)

func newDispatcherFixture(t *testing.T) (*Dispatcher, *memory.SessionStore, domain.Session) {
	t.Helper()
	store := memory.NewSessionStore()
	session := domain.NewSession("Friday Night", "host-1", "", domain.FormatPeril, time.Now())
	session.Players = append(session.Players, domain.NewPlayer("Alice", time.Now()))
	if err := store.Save(context.Background(), session); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	d := NewDispatcher(NewRegistry(), store, game.NewKeyedMutex())
	return d, store, session
}

func TestDirectorGameStartTransitionsAndBroadcasts(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)

	d.HandleDirectorEvent(context.Background(), session.Code, Inbound{Event: "game:start"})

	got, err := store.GetByCode(context.Background(), session.Code)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Status != domain.StatusActive || got.StartedAt == nil {
		t.Fatalf("expected active session with start time, got status %q", got.Status)
	}
	events := display.events()
	if len(events) != 1 || events[0] != "game:started" {
		t.Fatalf("expected game:started broadcast, saw %v", events)
	}
}

func TestDirectorInvalidTransitionBroadcastsNothing(t *testing.T) {
	d, _, session := newDispatcherFixture(t)
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)

	// Resuming a waiting game is not a legal transition.
	d.HandleDirectorEvent(context.Background(), session.Code, Inbound{Event: "game:resume"})

	if events := display.events(); len(events) != 0 {
		t.Fatalf("expected no broadcast for rejected transition, saw %v", events)
	}
}

func TestDirectorQuestionNavigation(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)
	ctx := context.Background()

	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "question:next"})
	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "question:next"})
	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "question:previous"})

	got, _ := store.GetByCode(ctx, session.Code)
	if got.CurrentQuestionIndex != 1 {
		t.Fatalf("expected question index 1, got %d", got.CurrentQuestionIndex)
	}

	d.HandleDirectorEvent(ctx, session.Code, Inbound{
		Event: "question:goto",
		Data:  json.RawMessage(`{"index": 7}`),
	})
	got, _ = store.GetByCode(ctx, session.Code)
	if got.CurrentQuestionIndex != 7 {
		t.Fatalf("expected question index 7 after goto, got %d", got.CurrentQuestionIndex)
	}

	last := display.sent[len(display.sent)-1]
	if last.Event != "question:changed" {
		t.Fatalf("expected question:changed, got %q", last.Event)
	}
	if idx := last.Data.(map[string]any)["question_index"]; idx != 7 {
		t.Fatalf("expected broadcast index 7, got %v", idx)
	}
}

func TestDirectorPreviousClampsAtZero(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	ctx := context.Background()

	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "question:previous"})

	got, _ := store.GetByCode(ctx, session.Code)
	if got.CurrentQuestionIndex != 0 {
		t.Fatalf("expected index clamped at 0, got %d", got.CurrentQuestionIndex)
	}
}

func TestDirectorFinishIncludesWinnerAndLeaderboard(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	ctx := context.Background()
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)

	got, _ := store.GetByCode(ctx, session.Code)
	got.Players = append(got.Players, domain.NewPlayer("Bob", time.Now()))
	got.Players[1].Score = 900
	got.Players[0].Score = 300
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}

	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "game:finish"})

	saved, _ := store.GetByCode(ctx, session.Code)
	if saved.Status != domain.StatusFinished || saved.FinishedAt == nil {
		t.Fatalf("expected finished session, got %q", saved.Status)
	}
	last := display.sent[len(display.sent)-1]
	if last.Event != "game:finished" {
		t.Fatalf("expected game:finished, got %q", last.Event)
	}
	data := last.Data.(map[string]any)
	winner, ok := data["winner"].(domain.LeaderboardEntry)
	if !ok || winner.Name != "Bob" || winner.Rank != 1 {
		t.Fatalf("expected Bob as winner, got %#v", data["winner"])
	}
	board, ok := data["final_leaderboard"].([]domain.LeaderboardEntry)
	if !ok || len(board) != 2 {
		t.Fatalf("expected two leaderboard entries, got %#v", data["final_leaderboard"])
	}
}

func TestDirectorEliminateMarksPlayer(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	ctx := context.Background()
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)
	playerID := session.Players[0].ID

	d.HandleDirectorEvent(ctx, session.Code, Inbound{
		Event: "player:eliminate",
		Data:  json.RawMessage(`{"player_id": "` + playerID + `"}`),
	})

	got, _ := store.GetByCode(ctx, session.Code)
	if !got.Players[0].Eliminated {
		t.Fatalf("expected player marked eliminated")
	}
	last := display.sent[len(display.sent)-1]
	if last.Event != "player:eliminated" {
		t.Fatalf("expected player:eliminated, got %q", last.Event)
	}

	// Missing player: no state change, no broadcast.
	before := len(display.sent)
	d.HandleDirectorEvent(ctx, session.Code, Inbound{
		Event: "player:eliminate",
		Data:  json.RawMessage(`{"player_id": "ghost"}`),
	})
	if len(display.sent) != before {
		t.Fatalf("expected no broadcast for unknown player")
	}
}

func TestDisplayStateGoesToDisplaysOnly(t *testing.T) {
	d, _, session := newDispatcherFixture(t)
	director := &fakeChannel{}
	display := &fakeChannel{}
	d.registry.ConnectDirector(session.Code, director)
	d.registry.ConnectDisplay(session.Code, display)

	d.HandleDirectorEvent(context.Background(), session.Code, Inbound{
		Event: "display:state",
		Data:  json.RawMessage(`{"view": "question"}`),
	})

	if events := display.events(); len(events) != 1 || events[0] != "display:state" {
		t.Fatalf("expected display:state on display channel, saw %v", events)
	}
	for _, e := range director.events() {
		if e == "display:state" {
			t.Fatalf("display:state leaked to director")
		}
	}
}

func TestPlayerAnswerSubmitRelayedToDirectorsOnly(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	ctx := context.Background()
	director := &fakeChannel{}
	otherPlayer := &fakeChannel{}
	d.registry.ConnectDirector(session.Code, director)
	d.registry.ConnectPlayer(session.Code, "spectator", otherPlayer)
	playerID := session.Players[0].ID

	got, _ := store.GetByCode(ctx, session.Code)
	got.CurrentQuestionIndex = 3
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("save: %v", err)
	}

	d.HandlePlayerEvent(ctx, session.Code, playerID, Inbound{
		Event: "answer:submit",
		Data:  json.RawMessage(`{"answer": "B", "time_taken": 4.2}`),
	})

	last := director.sent[len(director.sent)-1]
	if last.Event != "player:answered" {
		t.Fatalf("expected player:answered, got %q", last.Event)
	}
	data := last.Data.(map[string]any)
	if data["player_name"] != "Alice" || data["answer"] != "B" {
		t.Fatalf("unexpected payload: %v", data)
	}
	if data["question_index"] != 3 {
		t.Fatalf("expected current question index 3, got %v", data["question_index"])
	}
	for _, e := range otherPlayer.events() {
		if e == "player:answered" {
			t.Fatalf("answer relay leaked to a player channel")
		}
	}

	// An explicit question_index overrides the session's current one.
	d.HandlePlayerEvent(ctx, session.Code, playerID, Inbound{
		Event: "answer:submit",
		Data:  json.RawMessage(`{"answer": "C", "time_taken": 1.0, "question_index": 9}`),
	})
	last = director.sent[len(director.sent)-1]
	if idx := last.Data.(map[string]any)["question_index"]; idx != 9 {
		t.Fatalf("expected explicit index 9, got %v", idx)
	}
}

func TestPlayerAnswerSubmitFromUnknownPlayerDropped(t *testing.T) {
	d, _, session := newDispatcherFixture(t)
	director := &fakeChannel{}
	d.registry.ConnectDirector(session.Code, director)

	d.HandlePlayerEvent(context.Background(), session.Code, "not-in-roster", Inbound{
		Event: "answer:submit",
		Data:  json.RawMessage(`{"answer": "A", "time_taken": 2.0}`),
	})

	if events := director.events(); len(events) != 0 {
		t.Fatalf("expected no relay for unknown player, saw %v", events)
	}
}

func TestBuzzerPressNotifiesDirectorsAndAnnouncesWinner(t *testing.T) {
	d, _, session := newDispatcherFixture(t)
	director := &fakeChannel{}
	player := &fakeChannel{}
	d.registry.ConnectDirector(session.Code, director)
	d.registry.ConnectPlayer(session.Code, "p1", player)
	playerID := session.Players[0].ID

	d.HandlePlayerEvent(context.Background(), session.Code, playerID, Inbound{Event: "buzzer:press"})

	events := director.events()
	if len(events) < 2 || events[len(events)-2] != "buzzer:pressed" || events[len(events)-1] != "buzzer:winner" {
		t.Fatalf("expected buzzer:pressed then buzzer:winner on director, saw %v", events)
	}
	pressed := director.sent[len(director.sent)-2].Data.(map[string]any)
	if pressed["player_id"] != playerID || pressed["timestamp"] == "" {
		t.Fatalf("unexpected buzzer payload: %v", pressed)
	}
	playerEvents := player.events()
	if playerEvents[len(playerEvents)-1] != "buzzer:winner" {
		t.Fatalf("expected buzzer:winner broadcast to players, saw %v", playerEvents)
	}
}

func TestUnknownEventsAreIgnored(t *testing.T) {
	d, store, session := newDispatcherFixture(t)
	ctx := context.Background()
	display := &fakeChannel{}
	d.registry.ConnectDisplay(session.Code, display)

	d.HandleDirectorEvent(ctx, session.Code, Inbound{Event: "game:reticulate"})
	d.HandlePlayerEvent(ctx, session.Code, session.Players[0].ID, Inbound{Event: "dance"})

	if events := display.events(); len(events) != 0 {
		t.Fatalf("expected no broadcasts for unknown events, saw %v", events)
	}
	got, _ := store.GetByCode(ctx, session.Code)
	if got.Status != domain.StatusWaiting {
		t.Fatalf("unknown event changed session state to %q", got.Status)
	}
}
