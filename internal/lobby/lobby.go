// Package lobby manages rooms before a game starts: membership, host
// transfer, role selection, and the start-of-game role assignment. The
// simulation core never sees rooms; it only receives the player-id list
// and role map produced here.
package lobby

import (
	"fmt"
	"sync"

	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/protocol"
	"github.com/meltdownclowns/server/internal/sim"
)

// Sender delivers lobby notifications to players.
type Sender interface {
	SendTo(playerID string, message any)
	Broadcast(playerIDs []string, message any)
}

// Player is one connected person in a room.
type Player struct {
	ID            string
	Name          string
	SelectedRoles []sim.Role
	Ready         bool
	Connected     bool
}

// Room is a pre-game gathering of players.
type Room struct {
	ID         string
	Name       string
	Players    map[string]*Player
	order      []string // join order, for stable role assignment
	HostID     string
	MaxPlayers int
	InGame     bool
}

// Manager owns all rooms on this server. All state is instance-owned so a
// test can run several managers side by side.
type Manager struct {
	mu          sync.Mutex
	rooms       map[string]*Room
	playerRooms map[string]string // playerID -> roomID
	playerNames map[string]string
	roomCounter int
	maxRooms    int

	sender Sender
	logger *logger.Logger
}

// NewManager creates an empty lobby.
func NewManager(sender Sender, log *logger.Logger, maxRooms int) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		playerNames: make(map[string]string),
		maxRooms:    maxRooms,
		sender:      sender,
		logger:      log,
	}
}

// SetPlayerName records a player's display name on lobby join.
func (m *Manager) SetPlayerName(playerID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerNames[playerID] = name
}

// PlayerName returns a player's display name.
func (m *Manager) PlayerName(playerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.playerNames[playerID]; ok {
		return name
	}
	return "Unknown"
}

// CreateRoom opens a new room hosted by the player. Fails when the player
// is already in a room or the server is full.
func (m *Manager) CreateRoom(playerID, roomName string) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, inRoom := m.playerRooms[playerID]; inRoom {
		return nil, fmt.Errorf("already in a room")
	}
	if m.maxRooms > 0 && len(m.rooms) >= m.maxRooms {
		return nil, fmt.Errorf("server room limit reached")
	}

	m.roomCounter++
	id := fmt.Sprintf("room-%d", m.roomCounter)
	if roomName == "" {
		roomName = fmt.Sprintf("Room %d", m.roomCounter)
	}

	room := &Room{
		ID:         id,
		Name:       roomName,
		Players:    make(map[string]*Player),
		HostID:     playerID,
		MaxPlayers: sim.MaxPlayers,
	}
	m.addPlayerLocked(room, playerID)
	m.rooms[id] = room

	m.sendRoomUpdateLocked(room)
	return room, nil
}

// JoinRoom adds a player to an existing room.
func (m *Manager) JoinRoom(playerID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, inRoom := m.playerRooms[playerID]; inRoom {
		return fmt.Errorf("already in a room")
	}

	room, ok := m.rooms[roomID]
	if !ok {
		return fmt.Errorf("room not found")
	}
	if room.InGame {
		return fmt.Errorf("game already in progress")
	}
	if len(room.Players) >= room.MaxPlayers {
		return fmt.Errorf("room is full")
	}

	m.addPlayerLocked(room, playerID)
	m.sendRoomUpdateLocked(room)
	return nil
}

func (m *Manager) addPlayerLocked(room *Room, playerID string) {
	name, ok := m.playerNames[playerID]
	if !ok {
		name = "Player"
	}
	room.Players[playerID] = &Player{
		ID:        playerID,
		Name:      name,
		Connected: true,
	}
	room.order = append(room.order, playerID)
	m.playerRooms[playerID] = room.ID
}

// LeaveRoom removes a player; empty rooms close and hostship transfers to
// the earliest remaining joiner.
func (m *Manager) LeaveRoom(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.playerRooms[playerID]
	if !ok {
		return
	}
	room, ok := m.rooms[roomID]
	if !ok {
		return
	}

	delete(room.Players, playerID)
	delete(m.playerRooms, playerID)
	for i, id := range room.order {
		if id == playerID {
			room.order = append(room.order[:i], room.order[i+1:]...)
			break
		}
	}

	if len(room.Players) == 0 {
		delete(m.rooms, roomID)
		return
	}
	if room.HostID == playerID {
		room.HostID = room.order[0]
	}
	m.sendRoomUpdateLocked(room)
}

// SelectRole toggles a role on the player's selection. Selection is
// advisory; final assignment happens at start.
func (m *Manager) SelectRole(playerID string, role sim.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.playerRooms[playerID]
	if !ok {
		return
	}
	room := m.rooms[roomID]
	if room == nil || room.InGame {
		return
	}
	player := room.Players[playerID]
	if player == nil {
		return
	}

	for i, r := range player.SelectedRoles {
		if r == role {
			player.SelectedRoles = append(player.SelectedRoles[:i], player.SelectedRoles[i+1:]...)
			m.sendRoomUpdateLocked(room)
			return
		}
	}
	player.SelectedRoles = append(player.SelectedRoles, role)
	m.sendRoomUpdateLocked(room)
}

// StartGame flips the host's room into the in-game state and returns the
// player list plus the role assignment the session will run with.
func (m *Manager) StartGame(playerID string) (*Room, []string, map[string][]sim.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomID, ok := m.playerRooms[playerID]
	if !ok {
		return nil, nil, nil, fmt.Errorf("not in a room")
	}
	room := m.rooms[roomID]
	if room == nil {
		return nil, nil, nil, fmt.Errorf("room not found")
	}
	if room.HostID != playerID {
		return nil, nil, nil, fmt.Errorf("only the host can start")
	}
	if room.InGame {
		return nil, nil, nil, fmt.Errorf("game already in progress")
	}
	if len(room.Players) < sim.MinPlayers {
		return nil, nil, nil, fmt.Errorf("need at least %d players", sim.MinPlayers)
	}

	room.InGame = true
	playerIDs := append([]string(nil), room.order...)
	assignments := assignRoles(playerIDs)

	return room, playerIDs, assignments, nil
}

// assignRoles hands out stations: fixed combinations for 2-4 players so
// every station is covered, a modulo spread for larger crews.
func assignRoles(playerIDs []string) map[string][]sim.Role {
	assignments := make(map[string][]sim.Role, len(playerIDs))
	count := len(playerIDs)

	if combos, ok := sim.RoleCombinations[count]; ok {
		for i, id := range playerIDs {
			assignments[id] = append([]sim.Role(nil), combos[i%len(combos)]...)
		}
		return assignments
	}

	for i, id := range playerIDs {
		assignments[id] = []sim.Role{sim.AllRoles[i%len(sim.AllRoles)]}
	}
	return assignments
}

// EndGame returns a room to the waiting state once its session terminates.
func (m *Manager) EndGame(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return
	}
	room.InGame = false
	m.sendRoomUpdateLocked(room)
}

// HandleDisconnect marks an in-game player disconnected, or removes them
// from a waiting room outright.
func (m *Manager) HandleDisconnect(playerID string) {
	m.mu.Lock()
	roomID, inRoom := m.playerRooms[playerID]
	var room *Room
	if inRoom {
		room = m.rooms[roomID]
	}
	inGame := room != nil && room.InGame
	if inGame {
		if player := room.Players[playerID]; player != nil {
			player.Connected = false
		}
		m.sendRoomUpdateLocked(room)
	}
	delete(m.playerNames, playerID)
	m.mu.Unlock()

	if !inGame {
		m.LeaveRoom(playerID)
	}
}

// PlayerRoomID returns the id of the player's current room, or "".
func (m *Manager) PlayerRoomID(playerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playerRooms[playerID]
}

// RoomList returns the lobby-browser view of every room.
func (m *Manager) RoomList() []protocol.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := make([]protocol.RoomInfo, 0, len(m.rooms))
	for _, room := range m.rooms {
		list = append(list, protocol.RoomInfo{
			ID:          room.ID,
			Name:        room.Name,
			PlayerCount: len(room.Players),
			MaxPlayers:  room.MaxPlayers,
			InGame:      room.InGame,
		})
	}
	return list
}

func (m *Manager) sendRoomUpdateLocked(room *Room) {
	detail := protocol.RoomDetail{
		ID:         room.ID,
		Name:       room.Name,
		HostID:     room.HostID,
		MaxPlayers: room.MaxPlayers,
		InGame:     room.InGame,
	}
	for _, id := range room.order {
		p := room.Players[id]
		detail.Players = append(detail.Players, protocol.PlayerInfo{
			ID:            p.ID,
			Name:          p.Name,
			SelectedRoles: p.SelectedRoles,
			Ready:         p.Ready,
			Connected:     p.Connected,
		})
	}

	m.sender.Broadcast(room.order, protocol.NewRoomUpdate(detail))
}
