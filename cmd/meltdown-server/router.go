package main

import (
	"context"
	"time"

	"github.com/meltdownclowns/server/internal/game"
	"github.com/meltdownclowns/server/internal/lobby"
	"github.com/meltdownclowns/server/internal/network"
	"github.com/meltdownclowns/server/internal/platform/logger"
	"github.com/meltdownclowns/server/internal/protocol"
)

// router glues the transport to the lobby and the per-room sessions. It is
// the only place that knows about all three.
type router struct {
	ctx      context.Context
	hub      *network.Hub
	lobby    *lobby.Manager
	sessions *game.Registry
	logger   *logger.Logger
}

func (rt *router) HandleMessage(playerID string, msg protocol.ClientMessage) {
	switch msg.Type {
	case protocol.TypePing:
		rt.hub.SendTo(playerID, protocol.NewPong(msg.Timestamp, time.Now().UnixMilli()))

	case protocol.TypeJoinLobby:
		rt.lobby.SetPlayerName(playerID, msg.PlayerName)
		rt.hub.SendTo(playerID, protocol.NewLobbyList(rt.lobby.RoomList()))

	case protocol.TypeCreateRoom:
		if _, err := rt.lobby.CreateRoom(playerID, msg.RoomName); err != nil {
			rt.hub.SendTo(playerID, protocol.NewError("Could not create room: "+err.Error()))
		}

	case protocol.TypeJoinRoom:
		if err := rt.lobby.JoinRoom(playerID, msg.RoomID); err != nil {
			rt.hub.SendTo(playerID, protocol.NewError("Could not join room: "+err.Error()))
		}

	case protocol.TypeLeaveRoom:
		rt.notifySessionDisconnect(playerID)
		rt.lobby.LeaveRoom(playerID)

	case protocol.TypeSelectRole:
		rt.lobby.SelectRole(playerID, msg.Role)

	case protocol.TypeStartGame:
		rt.startGame(playerID)

	case protocol.TypeGameAction:
		if msg.Action == nil {
			rt.hub.SendTo(playerID, protocol.NewError("Missing action"))
			return
		}
		roomID := rt.lobby.PlayerRoomID(playerID)
		if session := rt.sessions.Get(roomID); session != nil {
			session.HandleAction(playerID, *msg.Action)
		}

	default:
		rt.hub.SendTo(playerID, protocol.NewError("Unknown message type: "+msg.Type))
	}
}

func (rt *router) HandleDisconnect(playerID string) {
	rt.notifySessionDisconnect(playerID)
	rt.lobby.HandleDisconnect(playerID)
}

func (rt *router) notifySessionDisconnect(playerID string) {
	roomID := rt.lobby.PlayerRoomID(playerID)
	if roomID == "" {
		return
	}
	if session := rt.sessions.Get(roomID); session != nil {
		session.HandleDisconnect(playerID)
	}
}

func (rt *router) startGame(playerID string) {
	room, playerIDs, assignments, err := rt.lobby.StartGame(playerID)
	if err != nil {
		rt.hub.SendTo(playerID, protocol.NewError("Cannot start game: "+err.Error()))
		return
	}

	seed := uint32(time.Now().UnixNano())
	session := game.NewSession(room.ID, playerIDs, assignments, seed, rt.hub, rt.logger, func(s *game.Session) {
		rt.sessions.Remove(s.RoomID)
		rt.lobby.EndGame(s.RoomID)
	})

	rt.sessions.Add(session)
	session.Start(rt.ctx)
}
