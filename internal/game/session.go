// Package game contains the per-room session orchestrator: it owns one
// room's GameState, drives the fixed-rate tick loop, applies player
// commands, and emits broadcast snapshots.
//
// ARCHITECTURAL RULE: the tick callback and externally-delivered command
// handlers run under the session mutex; no two mutations of a session's
// state ever interleave.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/platform/metrics"
	"github.com/meltdownclowns/server/internal/protocol"
	"github.com/meltdownclowns/server/internal/sim"
)

// Sender delivers messages to players. Implementations must serialize the
// message before returning so the session can keep mutating its state after
// the call.
type Sender interface {
	SendTo(playerID string, message any)
	Broadcast(playerIDs []string, message any)
}

// Session drives one room's simulation: Initialized -> Running -> Terminated.
type Session struct {
	SessionID string
	RoomID    string

	mu        sync.Mutex
	state     *sim.GameState
	rng       *sim.RNG
	events    *sim.EventEngine
	playerIDs []string
	roles     map[string][]sim.Role
	finished  bool

	// metrics bookkeeping between ticks
	lastSpawned      int
	lastConsequences int
	lastResolved     int

	sender     Sender
	logger     *logger.Logger
	onGameOver func(*Session)

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSession creates a session for a room. The seed fixes the entire event
// sequence; pass a clock-derived seed in production and a constant in tests.
func NewSession(roomID string, playerIDs []string, roles map[string][]sim.Role, seed uint32, sender Sender, log *logger.Logger, onGameOver func(*Session)) *Session {
	sessionID := "session-" + uuid.NewString()

	return &Session{
		SessionID:  sessionID,
		RoomID:     roomID,
		state:      sim.NewGameState(sessionID, len(playerIDs)),
		rng:        sim.NewRNG(seed),
		events:     sim.NewEventEngine(),
		playerIDs:  playerIDs,
		roles:      roles,
		sender:     sender,
		logger:     log,
		onGameOver: onGameOver,
		stopChan:   make(chan struct{}),
	}
}

// Start announces role assignments, sends the initial full snapshot, and
// begins the fixed-rate loop.
func (s *Session) Start(ctx context.Context) {
	for _, playerID := range s.playerIDs {
		s.sender.SendTo(playerID, protocol.NewGameStart(s.roles[playerID], s.SessionID))
	}

	s.mu.Lock()
	s.sender.Broadcast(s.playerIDs, protocol.NewGameState(s.state, false))
	s.mu.Unlock()

	metrics.Get().RecordSessionStart()
	s.logger.Event("SESSION_START", s.SessionID, fmt.Sprintf("room=%s players=%d", s.RoomID, len(s.playerIDs)))

	go s.run(ctx)
}

// run is the session's tick loop. Ticks are strictly sequential; an
// in-flight tick is never interrupted once started.
func (s *Session) run(ctx context.Context) {
	ticker := time.NewTicker(sim.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session loop stopped by context: " + s.SessionID)
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.step()
		}
	}
}

// Stop cancels the loop without emitting a game-over record. Used when a
// room is torn down externally.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// step advances the simulation by one tick: commands already applied ->
// phase -> physics -> events -> snapshot. On the first tick after the state
// turns terminal it emits the game-over record exactly once and stops.
func (s *Session) step() {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return
	}
	if s.state.GameOver {
		s.finishLocked()
		return
	}

	s.state.GameTime += sim.TickDelta
	s.state.TickCount++

	if sim.UpdatePhase(s.state) {
		s.logger.Event("PHASE_CHANGE", s.SessionID, sim.PhaseNames[s.state.Phase])
	}

	sim.TickReactor(s.state)
	s.events.Tick(s.state, s.rng)

	s.recordTickMetrics()

	isDelta := s.state.TickCount%sim.KeyframeInterval != 0
	s.sender.Broadcast(s.playerIDs, protocol.NewGameState(s.state, isDelta))

	metrics.Get().RecordTick(time.Since(start))
}

func (s *Session) recordTickMetrics() {
	spawned, consequences := s.events.Stats()
	resolved := s.state.ResolvedEventCount
	metrics.Get().RecordEvents(
		int64(spawned-s.lastSpawned),
		int64(resolved-s.lastResolved),
		int64(consequences-s.lastConsequences),
	)
	s.lastSpawned = spawned
	s.lastConsequences = consequences
	s.lastResolved = resolved
}

// finishLocked emits the terminal summary and deregisters the session.
// Callers hold s.mu.
func (s *Session) finishLocked() {
	s.finished = true

	stats := protocol.GameStats{
		SurvivalTime:   s.state.GameTime,
		EventsResolved: s.state.ResolvedEventCount,
		TotalEvents:    s.state.TotalEventCount,
		FinalPhase:     int(s.state.Phase),
	}
	s.sender.Broadcast(s.playerIDs, protocol.NewGameOver(s.state.Won, s.state.GameOverReason, stats))

	s.logger.Event("GAME_OVER", s.SessionID,
		fmt.Sprintf("won=%t reason=%q resolved=%d/%d", s.state.Won, s.state.GameOverReason, s.state.ResolvedEventCount, s.state.TotalEventCount))
	metrics.Get().RecordSessionEnd()

	s.stopOnce.Do(func() { close(s.stopChan) })

	if s.onGameOver != nil {
		s.onGameOver(s)
	}
}

// HandleAction validates and applies a player command at the moment it
// arrives, between ticks, never mid-tick. Rejections go back to the issuing
// player with a reason; accepted commands mutate state immediately.
func (s *Session) HandleAction(playerID string, action sim.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.state.GameOver {
		return
	}

	roles, ok := s.roles[playerID]
	if !ok {
		return
	}

	if err := sim.ValidateAction(action, roles, s.state); err != nil {
		metrics.Get().RecordCommand(false)
		s.sender.SendTo(playerID, protocol.NewError(err.Error()))
		return
	}

	sim.ApplyAction(action, s.state)
	metrics.Get().RecordCommand(true)
}

// HandleDisconnect notes a player dropping mid-game. The simulation keeps
// running; their stations simply go unmanned.
func (s *Session) HandleDisconnect(playerID string) {
	s.logger.Warn("Player disconnected mid-session: " + playerID + " (" + s.SessionID + ")")
}

// PlayerIDs returns the fixed player list for this session.
func (s *Session) PlayerIDs() []string {
	return s.playerIDs
}
