// Package protocol defines the JSON wire messages exchanged with clients.
// The simulation core never touches these directly; the network layer and
// session orchestrator translate between them and internal state.
package protocol

import "github.com/meltdownclowns/server/internal/sim"

// Client -> server message types.
const (
	TypePing       = "ping"
	TypeJoinLobby  = "join-lobby"
	TypeCreateRoom = "create-room"
	TypeJoinRoom   = "join-room"
	TypeLeaveRoom  = "leave-room"
	TypeSelectRole = "select-role"
	TypeStartGame  = "start-game"
	TypeGameAction = "game-action"
)

// ClientMessage is the envelope for every client -> server message.
// Only the fields relevant to Type are populated.
type ClientMessage struct {
	Type       string      `json:"type"`
	Timestamp  int64       `json:"timestamp,omitempty"`
	PlayerName string      `json:"playerName,omitempty"`
	RoomName   string      `json:"roomName,omitempty"`
	RoomID     string      `json:"roomId,omitempty"`
	Role       sim.Role    `json:"role,omitempty"`
	Action     *sim.Action `json:"action,omitempty"`
}

// Server -> client messages. Each carries its own type tag so clients can
// switch on a single field.

// Pong answers a ping and piggybacks server time for clock sync.
type Pong struct {
	Type       string `json:"type"`
	Timestamp  int64  `json:"timestamp"`
	ServerTime int64  `json:"serverTime"`
}

func NewPong(timestamp, serverTime int64) Pong {
	return Pong{Type: "pong", Timestamp: timestamp, ServerTime: serverTime}
}

// RoomInfo is a lobby-browser summary of one room.
type RoomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PlayerCount int    `json:"playerCount"`
	MaxPlayers  int    `json:"maxPlayers"`
	InGame      bool   `json:"inGame"`
}

// LobbyList carries the joinable rooms.
type LobbyList struct {
	Type  string     `json:"type"`
	Rooms []RoomInfo `json:"rooms"`
}

func NewLobbyList(rooms []RoomInfo) LobbyList {
	return LobbyList{Type: "lobby-list", Rooms: rooms}
}

// PlayerInfo describes one player inside a room.
type PlayerInfo struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	SelectedRoles []sim.Role `json:"selectedRoles"`
	Ready         bool       `json:"ready"`
	Connected     bool       `json:"connected"`
}

// RoomDetail is the full view of a room sent to its members.
type RoomDetail struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Players    []PlayerInfo `json:"players"`
	HostID     string       `json:"hostId"`
	MaxPlayers int          `json:"maxPlayers"`
	InGame     bool         `json:"inGame"`
}

// RoomUpdate notifies room members of membership/role changes.
type RoomUpdate struct {
	Type string     `json:"type"`
	Room RoomDetail `json:"room"`
}

func NewRoomUpdate(room RoomDetail) RoomUpdate {
	return RoomUpdate{Type: "room-update", Room: room}
}

// GameStart tells one player the game began and which stations they hold.
type GameStart struct {
	Type          string     `json:"type"`
	AssignedRoles []sim.Role `json:"assignedRoles"`
	SessionID     string     `json:"sessionId"`
}

func NewGameStart(roles []sim.Role, sessionID string) GameStart {
	return GameStart{Type: "game-start", AssignedRoles: roles, SessionID: sessionID}
}

// GameStateMsg is the per-tick snapshot broadcast. IsDelta is false on the
// initial snapshot and on every keyframe tick; the payload is the full
// state either way (no diffing).
type GameStateMsg struct {
	Type    string         `json:"type"`
	State   *sim.GameState `json:"state"`
	IsDelta bool           `json:"isDelta"`
}

func NewGameState(state *sim.GameState, isDelta bool) GameStateMsg {
	return GameStateMsg{Type: "game-state", State: state, IsDelta: isDelta}
}

// GameStats summarizes a finished session.
type GameStats struct {
	SurvivalTime   float64 `json:"survivalTime"`
	EventsResolved int     `json:"eventsResolved"`
	TotalEvents    int     `json:"totalEvents"`
	FinalPhase     int     `json:"finalPhase"`
}

// GameOver is the terminal record broadcast exactly once per session.
type GameOver struct {
	Type   string    `json:"type"`
	Won    bool      `json:"won"`
	Reason string    `json:"reason"`
	Stats  GameStats `json:"stats"`
}

func NewGameOver(won bool, reason string, stats GameStats) GameOver {
	return GameOver{Type: "game-over", Won: won, Reason: reason, Stats: stats}
}

// ErrorMsg reports a rejected command or request to the offending player.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func NewError(message string) ErrorMsg {
	return ErrorMsg{Type: "error", Message: message}
}
