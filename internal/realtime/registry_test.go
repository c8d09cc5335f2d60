package realtime

import (
	"errors"
	"sync"
	"testing"
)

// fakeChannel records delivered envelopes and can be told to fail.
type fakeChannel struct {
	mu   sync.Mutex
	sent []Envelope
	fail error
}

func (c *fakeChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.sent = append(c.sent, v.(Envelope))
	return nil
}

func (c *fakeChannel) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.sent))
	for i, e := range c.sent {
		names[i] = e.Event
	}
	return names
}

func TestBroadcastReachesAllRolesInOneRoom(t *testing.T) {
	reg := NewRegistry()
	director := &fakeChannel{}
	display := &fakeChannel{}
	player := &fakeChannel{}
	otherRoom := &fakeChannel{}

	reg.ConnectDirector("ABC123", director)
	reg.ConnectDisplay("ABC123", display)
	reg.ConnectPlayer("ABC123", "p1", player)
	reg.ConnectDirector("ZZZ999", otherRoom)

	if errs := reg.Broadcast("ABC123", Envelope{Event: "game:started"}, nil); errs != nil {
		t.Fatalf("unexpected send errors: %v", errs)
	}

	for name, ch := range map[string]*fakeChannel{"director": director, "display": display, "player": player} {
		found := false
		for _, e := range ch.events() {
			if e == "game:started" {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %s to receive broadcast, saw %v", name, ch.events())
		}
	}
	for _, e := range otherRoom.events() {
		if e == "game:started" || e == "player:joined" {
			t.Fatalf("message leaked into another room: %v", otherRoom.events())
		}
	}
}

func TestConnectPlayerAnnouncesJoinBeforeReturning(t *testing.T) {
	reg := NewRegistry()
	director := &fakeChannel{}
	reg.ConnectDirector("ABC123", director)

	reg.ConnectPlayer("ABC123", "p1", &fakeChannel{})

	events := director.events()
	if len(events) != 1 || events[0] != "player:joined" {
		t.Fatalf("expected player:joined delivered during connect, saw %v", events)
	}
	data := director.sent[0].Data.(map[string]any)
	if data["player_id"] != "p1" || data["players_count"] != 1 {
		t.Fatalf("unexpected join payload: %v", data)
	}
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	reg := NewRegistry()
	broken := &fakeChannel{fail: errors.New("write: broken pipe")}
	healthy := &fakeChannel{}
	reg.ConnectDirector("ABC123", broken)
	reg.ConnectDisplay("ABC123", healthy)

	errs := reg.Broadcast("ABC123", Envelope{Event: "timer:started"}, nil)
	if len(errs) != 1 || errs[0].Role != RoleDirector {
		t.Fatalf("expected one structured director failure, got %v", errs)
	}
	if got := healthy.events(); len(got) != 1 || got[0] != "timer:started" {
		t.Fatalf("expected healthy channel delivery despite failure, saw %v", got)
	}

	// A failed send does not evict the channel.
	if errs := reg.Broadcast("ABC123", Envelope{Event: "timer:stopped"}, nil); len(errs) != 1 {
		t.Fatalf("expected the broken channel to still be registered, got %v", errs)
	}
}

func TestSendToRoleAndPlayer(t *testing.T) {
	reg := NewRegistry()
	director := &fakeChannel{}
	p1 := &fakeChannel{}
	p2 := &fakeChannel{}
	reg.ConnectDirector("ABC123", director)
	reg.ConnectPlayer("ABC123", "p1", p1)
	reg.ConnectPlayer("ABC123", "p2", p2)

	reg.SendToRole("ABC123", RoleDirector, Envelope{Event: "player:answered"})
	if got := director.events(); got[len(got)-1] != "player:answered" {
		t.Fatalf("expected director-only event, saw %v", got)
	}
	for _, e := range p1.events() {
		if e == "player:answered" {
			t.Fatalf("player received director-only event")
		}
	}

	reg.SendToPlayer("ABC123", "p2", Envelope{Event: "buzzer:winner"})
	if got := p2.events(); got[len(got)-1] != "buzzer:winner" {
		t.Fatalf("expected targeted send, saw %v", got)
	}
	// Unknown player ids are a silent no-op.
	if errs := reg.SendToPlayer("ABC123", "ghost", Envelope{Event: "x"}); errs != nil {
		t.Fatalf("expected no errors for unknown player, got %v", errs)
	}
}

func TestEmptyRoomsAreReaped(t *testing.T) {
	reg := NewRegistry()
	director := &fakeChannel{}
	player := &fakeChannel{}
	reg.ConnectDirector("ABC123", director)
	reg.ConnectPlayer("ABC123", "p1", player)

	reg.DisconnectPlayer("ABC123", "p1")
	if _, ok := reg.rooms["ABC123"]; !ok {
		t.Fatalf("room reaped while a director remains")
	}

	reg.DisconnectDirector("ABC123", director)
	if _, ok := reg.rooms["ABC123"]; ok {
		t.Fatalf("expected empty room to be reaped")
	}

	if reg.PlayerCount("ABC123") != 0 {
		t.Fatalf("expected zero players after reap")
	}
}
