package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/internal/record"
	"github.com/vhoang/covua-server/internal/registry"
	"github.com/vhoang/covua-server/internal/room"
	"github.com/vhoang/covua-server/pkg/protocol"
	"go.uber.org/zap"
)

const persistTimeout = 10 * time.Second

// handleEvent applies one inbound event. Invoked synchronously from the
// connection's read loop, so events from the same channel apply in arrival
// order. A malformed event never reaches room state.
func (h *Hub) handleEvent(c *Client, env protocol.Envelope) {
	switch env.Event {
	case protocol.EventLogin:
		h.handleLogin(c, env.Data)
	case protocol.EventCreateRoom:
		h.handleCreateRoom(c)
	case protocol.EventJoinRoomByID:
		h.handleJoinRoom(c, env.Data)
	case protocol.EventStartGame:
		h.handleStartGame(c, env.Data)
	case protocol.EventLeaveRoom:
		h.handleLeaveRoom(c)
	case protocol.EventMove:
		h.handleMove(c, env.Data)
	default:
		obslog.L().Debug("ws_unknown_event", zap.String("event", env.Event))
	}
}

func (h *Hub) handleLogin(c *Client, data json.RawMessage) {
	var req protocol.LoginRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.send(protocol.EventLoginResponse, protocol.LoginResponse{
			Success: false,
			Message: h.cat.Render("login.required", nil),
		})
		return
	}
	// a rebind while the identity occupies a room would strand the room with
	// an owner or guest no departure can ever match
	if prev, err := h.reg.Resolve(c.connID); err == nil &&
		prev.RoomCode != "" && prev.Identity != strings.TrimSpace(req.Identity) {
		c.send(protocol.EventLoginResponse, protocol.LoginResponse{
			Success: false,
			Message: h.cat.Render("login.in_room", nil),
		})
		return
	}
	conn, err := h.reg.Register(c.connID, req.Identity)
	if err != nil {
		msg := h.cat.Render("login.required", nil)
		if errors.Is(err, registry.ErrDuplicateIdentity) {
			msg = h.cat.Render("login.duplicate", nil)
		}
		c.send(protocol.EventLoginResponse, protocol.LoginResponse{Success: false, Message: msg})
		return
	}
	obslog.L().Info("ws_login", zap.String("conn", c.connID), zap.String("identity", conn.Identity))
	c.send(protocol.EventLoginResponse, protocol.LoginResponse{
		Success:  true,
		Identity: conn.Identity,
		Message:  h.cat.Render("login.success", nil),
	})
	// registration side effect: directory snapshot to this channel only
	c.send(protocol.EventRoomsList, h.roomsList())
}

func (h *Hub) handleCreateRoom(c *Client) {
	conn, err := h.reg.Resolve(c.connID)
	if err != nil {
		return // unauthenticated events are dropped
	}
	if conn.RoomCode != "" {
		c.send(protocol.EventCreateRoomError, protocol.ErrorNotice{
			Message: h.cat.Render("room.create_denied", nil),
		})
		return
	}
	snap, err := h.rooms.Create(conn.Identity)
	if err != nil {
		c.send(protocol.EventCreateRoomError, protocol.ErrorNotice{Message: err.Error()})
		return
	}
	h.reg.SetRoom(c.connID, snap.Code)
	c.send(protocol.EventCreateRoomSuccess, protocol.CreateRoomSuccess{
		RoomCode: snap.Code,
		Message:  h.cat.Render("room.created", nil),
	})
	h.broadcastRoomsList()
}

func (h *Hub) handleJoinRoom(c *Client, data json.RawMessage) {
	conn, err := h.reg.Resolve(c.connID)
	if err != nil {
		return
	}
	var req protocol.JoinRoomRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.send(protocol.EventJoinRoomError, protocol.ErrorNotice{Message: h.cat.Render("room.not_found", nil)})
		return
	}
	if conn.RoomCode != "" {
		c.send(protocol.EventJoinRoomError, protocol.ErrorNotice{Message: h.cat.Render("room.create_denied", nil)})
		return
	}
	snap, err := h.rooms.Join(req.RoomCode, conn.Identity)
	if err != nil {
		msg := h.cat.Render("room.not_found", nil)
		if errors.Is(err, room.ErrRoomFull) {
			msg = h.cat.Render("room.full", nil)
		}
		c.send(protocol.EventJoinRoomError, protocol.ErrorNotice{Message: msg})
		return
	}
	h.reg.SetRoom(c.connID, snap.Code)
	c.send(protocol.EventJoinRoomSuccess, protocol.JoinRoomSuccess{
		RoomCode: snap.Code,
		Message:  h.cat.Render("room.joined", nil),
	})
	h.toRoom(snap.Code, protocol.EventPlayerJoined, protocol.PlayerJoined{Identity: conn.Identity})
	h.broadcastRoomsList()
}

func (h *Hub) handleStartGame(c *Client, data json.RawMessage) {
	conn, err := h.reg.Resolve(c.connID)
	if err != nil {
		return
	}
	var req protocol.StartGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	res, ok := h.rooms.Start(req.RoomCode, conn.Identity)
	if !ok {
		return // stale or duplicate start requests are a deliberate no-op
	}
	h.toRoom(req.RoomCode, protocol.EventGameStart, protocol.GameStart{
		RoomCode:      req.RoomCode,
		Position:      res.Room.Position,
		WhiteIdentity: res.WhiteIdentity,
		BlackIdentity: res.BlackIdentity,
		Timestamp:     res.StartedAt.UnixMilli(),
	})
	h.broadcastRoomsList()
	if h.webhook != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			h.webhook.GameStarted(ctx, req.RoomCode, res.WhiteIdentity, res.BlackIdentity)
		}()
	}
}

func (h *Hub) handleMove(c *Client, data json.RawMessage) {
	conn, err := h.reg.Resolve(c.connID)
	if err != nil {
		return
	}
	var req protocol.MoveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.send(protocol.EventInvalidMove, protocol.ErrorNotice{Message: h.cat.Render("move.invalid", nil)})
		return
	}
	// the mover is the resolved identity; the payload identity is ignored
	out, err := h.rooms.SubmitMove(req.RoomCode, conn.Identity, req.FromPosition, req.MoveNotation)
	if err != nil {
		msg := h.cat.Render("move.invalid", nil)
		if errors.Is(err, room.ErrNotPlaying) {
			msg = h.cat.Render("move.not_playing", nil)
		}
		c.send(protocol.EventInvalidMove, protocol.ErrorNotice{Message: msg})
		return
	}
	h.toRoom(req.RoomCode, protocol.EventMoveAccepted, protocol.MoveAccepted{
		Position: out.Position,
		Move:     out.SAN,
	})
	if !out.Finished {
		return
	}
	end := protocol.GameEnd{Winner: out.Winner, Outcome: out.Outcome}
	if out.Outcome == room.OutcomeDraw {
		end.Message = h.cat.Render("game.draw", nil)
	} else {
		end.Message = h.cat.Render("game.checkmate", map[string]any{"Winner": out.Winner})
	}
	h.toRoom(req.RoomCode, protocol.EventGameEnd, end)
	h.broadcastRoomsList()
	h.persistFinished(out.Room)
}

func (h *Hub) handleLeaveRoom(c *Client) {
	conn, err := h.reg.Resolve(c.connID)
	if err != nil {
		return
	}
	h.departRoom(c.connID, conn)
}

// handleDisconnect applies the abrupt-drop path: same room mutation as a
// voluntary leave, then identity release. The symmetry with handleLeaveRoom
// is a correctness requirement, both paths go through departRoom.
func (h *Hub) handleDisconnect(c *Client) {
	if conn, err := h.reg.Resolve(c.connID); err == nil {
		h.departRoom(c.connID, conn)
	}
	h.reg.Release(c.connID)
	h.detach(c)
}

// departRoom removes the identity from its room and notifies occupants.
// Shared by the leaveRoom event and the disconnect path.
func (h *Hub) departRoom(connID string, conn *registry.Connection) {
	if conn.RoomCode == "" {
		return
	}
	code := conn.RoomCode
	h.reg.ClearRoom(connID)
	out, err := h.rooms.Depart(code, conn.Identity)
	if err != nil {
		obslog.L().Warn("room_depart_error", zap.String("code", code), zap.String("identity", conn.Identity), zap.Error(err))
		return
	}
	if out.Closed {
		// the departing owner hears the close as well, before the fan-out
		// to the occupants still bound to the room
		if cl := h.clientByID(connID); cl != nil {
			cl.send(protocol.EventRoomClosed, protocol.ErrorNotice{Message: h.cat.Render("room.closed", nil)})
		}
		h.closeRoomMembers(code)
	} else {
		h.toRoom(code, protocol.EventPlayerLeft, protocol.PlayerLeft{Identity: out.Departed})
	}
	h.broadcastRoomsList()
}

// closeRoomMembers notifies every remaining occupant that the room is gone
// and clears their room association.
func (h *Hub) closeRoomMembers(code string) {
	for _, c := range h.snapshotClients() {
		conn, err := h.reg.Resolve(c.connID)
		if err != nil || conn.RoomCode != code {
			continue
		}
		c.send(protocol.EventRoomClosed, protocol.ErrorNotice{Message: h.cat.Render("room.closed", nil)})
		h.reg.ClearRoom(c.connID)
	}
}

// persistFinished records a terminal game with the record store, the
// archive, and the webhook. Best-effort: failures are logged, never
// surfaced to the room.
func (h *Hub) persistFinished(snap *room.Snapshot) {
	if snap == nil {
		return
	}
	rec := &record.Record{
		RoomCode:    snap.Code,
		Owner:       snap.Owner,
		Guest:       snap.Guest,
		MoveHistory: snap.MoveHistory,
		Winner:      snap.Winner,
		Outcome:     snap.Outcome,
		CreatedAt:   snap.CreatedAt,
		FinishedAt:  time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if h.records != nil {
			if err := h.records.SaveFinished(ctx, rec); err != nil {
				obslog.L().Error("record_save_error", zap.String("code", rec.RoomCode), zap.Error(err))
			}
		}
		if h.archive != nil {
			if err := h.archive.Archive(ctx, rec); err != nil {
				obslog.L().Error("record_archive_error", zap.String("code", rec.RoomCode), zap.Error(err))
			}
		}
		if h.webhook != nil {
			h.webhook.GameEnded(ctx, rec.RoomCode, rec.Winner, rec.Outcome, rec.MoveHistory)
		}
	}()
}
