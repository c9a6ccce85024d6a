package game

import (
	"sync"
	"testing"

	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/protocol"
	"github.com/meltdownclowns/server/internal/sim"
)

// fakeSender records every message so tests can assert on the broadcast
// stream without a live hub.
type fakeSender struct {
	mu        sync.Mutex
	direct    map[string][]any
	broadcast []any
}

func newFakeSender() *fakeSender {
	return &fakeSender{direct: make(map[string][]any)}
}

func (f *fakeSender) SendTo(playerID string, message any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[playerID] = append(f.direct[playerID], message)
}

func (f *fakeSender) Broadcast(playerIDs []string, message any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcast = append(f.broadcast, message)
}

func newTestSession(sender Sender, onGameOver func(*Session)) *Session {
	players := []string{"p1", "p2"}
	roles := map[string][]sim.Role{
		"p1": {sim.RoleReactorOperator, sim.RoleEngineer},
		"p2": {sim.RoleTechnician, sim.RoleSafetyOfficer},
	}
	return NewSession("room-1", players, roles, 42, sender, logger.NewLogger(), onGameOver)
}

func TestStepBroadcastsSnapshots(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	for i := 0; i < 3; i++ {
		s.step()
	}

	if len(sender.broadcast) != 3 {
		t.Fatalf("Expected 3 snapshots after 3 ticks, got %d", len(sender.broadcast))
	}
	msg, ok := sender.broadcast[0].(protocol.GameStateMsg)
	if !ok {
		t.Fatalf("Expected GameStateMsg broadcast, got %T", sender.broadcast[0])
	}
	if !msg.IsDelta {
		t.Error("Expected mid-interval snapshots to be deltas")
	}
	if s.state.TickCount != 3 {
		t.Errorf("Expected tick count 3 after 3 ticks, got %d", s.state.TickCount)
	}
}

func TestKeyframeCadence(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	for i := 0; i < sim.KeyframeInterval*2; i++ {
		s.step()
	}

	keyframes := 0
	for _, raw := range sender.broadcast {
		if msg, ok := raw.(protocol.GameStateMsg); ok && !msg.IsDelta {
			keyframes++
		}
	}
	if keyframes != 2 {
		t.Errorf("Expected 2 keyframes over %d ticks, got %d", sim.KeyframeInterval*2, keyframes)
	}
}

func TestGameOverEmittedOnceAndSessionStops(t *testing.T) {
	sender := newFakeSender()
	var ended *Session
	s := newTestSession(sender, func(sess *Session) { ended = sess })

	// Force a terminal state: the next physics tick flags it, the tick after
	// that emits the game-over record.
	s.state.Reactor.Temperature = 950
	s.state.CriticalTempTimer = sim.CriticalTempHold

	s.step() // flags GameOver, still broadcasts state
	s.step() // emits game-over
	s.step() // must do nothing
	s.step()

	overs := 0
	for _, raw := range sender.broadcast {
		if _, ok := raw.(protocol.GameOver); ok {
			overs++
		}
	}
	if overs != 1 {
		t.Fatalf("Expected exactly one game-over broadcast, got %d", overs)
	}
	if ended != s {
		t.Error("Expected the onGameOver callback to fire with the session")
	}

	// The terminal snapshot must carry the reason so clients can render it.
	last := sender.broadcast[len(sender.broadcast)-2]
	if msg, ok := last.(protocol.GameStateMsg); ok {
		if !msg.State.GameOver {
			t.Error("Expected the last snapshot to carry the terminal flag")
		}
	}
}

func TestHandleActionAppliesValidCommand(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	s.HandleAction("p1", sim.Action{Kind: sim.ActionSetControlRods, Position: 80})

	if s.state.Reactor.ControlRodPosition != 80 {
		t.Errorf("Expected rods at 80, got %v", s.state.Reactor.ControlRodPosition)
	}
	if len(sender.direct["p1"]) != 0 {
		t.Errorf("Expected no rejection for a valid command, got %v", sender.direct["p1"])
	}
}

func TestHandleActionRejectsWrongRole(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	// p2 covers technician and safety officer, not the rod controls.
	s.HandleAction("p2", sim.Action{Kind: sim.ActionSetControlRods, Position: 80})

	if s.state.Reactor.ControlRodPosition != 50 {
		t.Errorf("Expected rods untouched at 50, got %v", s.state.Reactor.ControlRodPosition)
	}
	msgs := sender.direct["p2"]
	if len(msgs) != 1 {
		t.Fatalf("Expected one rejection message, got %d", len(msgs))
	}
	if _, ok := msgs[0].(protocol.ErrorMsg); !ok {
		t.Errorf("Expected ErrorMsg, got %T", msgs[0])
	}
}

func TestHandleActionIgnoresUnknownPlayer(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	s.HandleAction("stranger", sim.Action{Kind: sim.ActionScram})

	if s.state.Reactor.ControlRodPosition != 50 {
		t.Errorf("Expected rods untouched for a non-member, got %v", s.state.Reactor.ControlRodPosition)
	}
}

func TestHandleActionIgnoredAfterGameOver(t *testing.T) {
	sender := newFakeSender()
	s := newTestSession(sender, nil)

	s.state.GameOver = true
	s.HandleAction("p1", sim.Action{Kind: sim.ActionScram})

	if s.state.Reactor.ControlRodPosition != 50 {
		t.Errorf("Expected commands ignored once terminal, rods at %v", s.state.Reactor.ControlRodPosition)
	}
}

func TestIdenticalSeedsReplayIdentically(t *testing.T) {
	runSeeded := func() *sim.GameState {
		s := newTestSession(newFakeSender(), nil)
		for i := 0; i < 2000; i++ {
			s.step()
		}
		return s.state
	}

	a := runSeeded()
	b := runSeeded()

	if a.TickCount != b.TickCount || a.TotalEventCount != b.TotalEventCount {
		t.Fatalf("Expected identical replays, got ticks %d/%d events %d/%d",
			a.TickCount, b.TickCount, a.TotalEventCount, b.TotalEventCount)
	}
	if a.Reactor != b.Reactor {
		t.Errorf("Expected identical reactor trajectories, got %+v vs %+v", a.Reactor, b.Reactor)
	}
}
