package protocol

import "encoding/json"

// Event names exchanged over the session channel. Client events arrive in an
// Envelope; server events are written back in the same shape.
const (
	// client → server
	EventLogin        = "login"
	EventCreateRoom   = "createRoom"
	EventJoinRoomByID = "joinRoomById"
	EventStartGame    = "startGame"
	EventLeaveRoom    = "leaveRoom"
	EventMove         = "move"

	// server → client
	EventLoginResponse     = "loginResponse"
	EventRoomsList         = "roomsList"
	EventCreateRoomSuccess = "createRoomSuccess"
	EventCreateRoomError   = "createRoomError"
	EventJoinRoomSuccess   = "joinRoomSuccess"
	EventJoinRoomError     = "joinRoomError"
	EventPlayerJoined      = "playerJoined"
	EventPlayerLeft        = "playerLeft"
	EventRoomClosed        = "roomClosed"
	EventGameStart         = "gameStart"
	EventMoveAccepted      = "moveAccepted"
	EventGameEnd           = "gameEnd"
	EventInvalidMove       = "invalidMove"
)

// Envelope is the framing for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type LoginRequest struct {
	Identity string `json:"identity"`
}

type LoginResponse struct {
	Success  bool   `json:"success"`
	Identity string `json:"identity,omitempty"`
	Message  string `json:"message"`
}

type CreateRoomSuccess struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Identity string `json:"identity"`
}

type JoinRoomSuccess struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type StartGameRequest struct {
	RoomCode string `json:"roomCode"`
}

type MoveRequest struct {
	RoomCode     string `json:"roomCode"`
	Identity     string `json:"identity"`
	FromPosition string `json:"fromPosition"`
	MoveNotation string `json:"moveNotation"`
}

// RoomSummary is one entry of the directory snapshot broadcast after every
// directory-mutating event. Receivers must treat the list as a full snapshot.
type RoomSummary struct {
	Code        string `json:"code"`
	Owner       string `json:"owner"`
	Guest       string `json:"guest,omitempty"`
	Status      string `json:"status"`
	PlayerCount int    `json:"playerCount"`
}

type GameStart struct {
	RoomCode      string `json:"roomCode"`
	Position      string `json:"position"`
	WhiteIdentity string `json:"whiteIdentity"`
	BlackIdentity string `json:"blackIdentity"`
	Timestamp     int64  `json:"timestamp"`
}

type PlayerJoined struct {
	Identity string `json:"identity"`
}

type PlayerLeft struct {
	Identity string `json:"identity"`
}

type MoveAccepted struct {
	Position string `json:"position"`
	Move     string `json:"move"`
}

type GameEnd struct {
	Winner  string `json:"winner,omitempty"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}
