package lobby

import (
	"sync"
	"testing"

	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/sim"
)

type fakeSender struct {
	mu       sync.Mutex
	messages []any
}

func (f *fakeSender) SendTo(playerID string, message any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeSender) Broadcast(playerIDs []string, message any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func newTestManager() *Manager {
	return NewManager(&fakeSender{}, logger.NewLogger(), 10)
}

func TestCreateAndJoinRoom(t *testing.T) {
	m := newTestManager()
	m.SetPlayerName("p1", "Alice")
	m.SetPlayerName("p2", "Bob")

	room, err := m.CreateRoom("p1", "Reactor One")
	if err != nil {
		t.Fatalf("Expected room creation to succeed, got %v", err)
	}
	if room.HostID != "p1" {
		t.Errorf("Expected creator to host, got %s", room.HostID)
	}

	if err := m.JoinRoom("p2", room.ID); err != nil {
		t.Fatalf("Expected join to succeed, got %v", err)
	}
	if len(room.Players) != 2 {
		t.Errorf("Expected 2 players, got %d", len(room.Players))
	}
	if room.Players["p2"].Name != "Bob" {
		t.Errorf("Expected joiner named Bob, got %s", room.Players["p2"].Name)
	}
}

func TestCannotJoinTwoRooms(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")
	m.CreateRoom("p2", "")

	if err := m.JoinRoom("p2", room.ID); err == nil {
		t.Error("Expected join to fail while already in a room")
	}
	if _, err := m.CreateRoom("p1", "another"); err == nil {
		t.Error("Expected second create to fail while already in a room")
	}
}

func TestJoinMissingOrFullRoom(t *testing.T) {
	m := newTestManager()
	if err := m.JoinRoom("p1", "room-404"); err == nil {
		t.Error("Expected join of a missing room to fail")
	}

	room, _ := m.CreateRoom("host", "")
	for i := 0; i < sim.MaxPlayers-1; i++ {
		if err := m.JoinRoom(string(rune('a'+i)), room.ID); err != nil {
			t.Fatalf("Expected join %d to succeed, got %v", i, err)
		}
	}
	if err := m.JoinRoom("late", room.ID); err == nil {
		t.Error("Expected join of a full room to fail")
	}
}

func TestRoomLimit(t *testing.T) {
	m := NewManager(&fakeSender{}, logger.NewLogger(), 1)
	m.CreateRoom("p1", "")
	if _, err := m.CreateRoom("p2", ""); err == nil {
		t.Error("Expected room creation beyond the limit to fail")
	}
}

func TestLeaveTransfersHostAndClosesEmptyRooms(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")
	m.JoinRoom("p2", room.ID)
	m.JoinRoom("p3", room.ID)

	m.LeaveRoom("p1")
	if room.HostID != "p2" {
		t.Errorf("Expected hostship to pass to the earliest joiner, got %s", room.HostID)
	}

	m.LeaveRoom("p2")
	m.LeaveRoom("p3")
	if m.PlayerRoomID("p3") != "" {
		t.Error("Expected p3 to be out of any room")
	}
	if len(m.RoomList()) != 0 {
		t.Error("Expected the emptied room to close")
	}
}

func TestSelectRoleToggles(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")

	m.SelectRole("p1", sim.RoleEngineer)
	if len(room.Players["p1"].SelectedRoles) != 1 {
		t.Fatalf("Expected one selected role, got %v", room.Players["p1"].SelectedRoles)
	}
	m.SelectRole("p1", sim.RoleEngineer)
	if len(room.Players["p1"].SelectedRoles) != 0 {
		t.Errorf("Expected reselect to deselect, got %v", room.Players["p1"].SelectedRoles)
	}
}

func TestStartGameRequiresHostAndMinPlayers(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")

	if _, _, _, err := m.StartGame("p1"); err == nil {
		t.Error("Expected start to fail below the player minimum")
	}

	m.JoinRoom("p2", room.ID)
	if _, _, _, err := m.StartGame("p2"); err == nil {
		t.Error("Expected start to fail for a non-host")
	}

	startedRoom, playerIDs, roles, err := m.StartGame("p1")
	if err != nil {
		t.Fatalf("Expected host start to succeed, got %v", err)
	}
	if !startedRoom.InGame {
		t.Error("Expected the room to flip in-game")
	}
	if len(playerIDs) != 2 || len(roles) != 2 {
		t.Errorf("Expected 2 players with roles, got %d/%d", len(playerIDs), len(roles))
	}

	if _, _, _, err := m.StartGame("p1"); err == nil {
		t.Error("Expected restart of a running room to fail")
	}
}

func TestRoleAssignmentCoversAllStations(t *testing.T) {
	for _, count := range []int{2, 3, 4, 5, 6} {
		ids := make([]string, count)
		for i := range ids {
			ids[i] = string(rune('a' + i))
		}

		assignments := assignRoles(ids)
		covered := map[sim.Role]bool{}
		for _, id := range ids {
			if len(assignments[id]) == 0 {
				t.Errorf("Expected player %s to get at least one station with %d players", id, count)
			}
			for _, r := range assignments[id] {
				covered[r] = true
			}
		}
		if len(covered) != len(sim.AllRoles) {
			t.Errorf("Expected all %d stations covered with %d players, got %d", len(sim.AllRoles), count, len(covered))
		}
	}
}

func TestDisconnectInWaitingRoomLeaves(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")
	m.JoinRoom("p2", room.ID)

	m.HandleDisconnect("p2")
	if len(room.Players) != 1 {
		t.Errorf("Expected a waiting-room disconnect to remove the player, got %d", len(room.Players))
	}
}

func TestDisconnectInGameKeepsSeat(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")
	m.JoinRoom("p2", room.ID)
	m.StartGame("p1")

	m.HandleDisconnect("p2")
	player := room.Players["p2"]
	if player == nil {
		t.Fatal("Expected an in-game disconnect to keep the seat")
	}
	if player.Connected {
		t.Error("Expected the seat marked disconnected")
	}
}

func TestEndGameReopensRoom(t *testing.T) {
	m := newTestManager()
	room, _ := m.CreateRoom("p1", "")
	m.JoinRoom("p2", room.ID)
	m.StartGame("p1")

	m.EndGame(room.ID)
	if room.InGame {
		t.Error("Expected the room to reopen after the session ends")
	}
}
