// Package room is the source of truth for room existence and lifecycle.
// All mutation goes through Directory operations; handler code never touches
// room fields directly, which keeps the per-room serialization enforceable.
package room

import (
	"sync"
	"time"
)

// Status is a room's lifecycle state. Closed is not a stored status: an
// owner departure removes the room from the directory outright.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusReady    Status = "ready"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Outcome markers recorded on transition into finished.
const (
	OutcomeCheckmate = "checkmate"
	OutcomeDraw      = "draw"
)

// Room is a two-occupant game session. Guarded by its own mutex so distinct
// rooms can be processed concurrently while each room's events serialize.
type Room struct {
	mu sync.Mutex

	Code        string
	Owner       string // player1, always white once play starts
	Guest       string // player2, empty while waiting
	Status      Status
	Position    string   // FEN, authoritative only once playing
	MoveHistory []string // SAN, append-only while playing
	Winner      string   // set iff finished by checkmate
	Outcome     string   // "checkmate" or "draw" iff finished
	CreatedAt   time.Time
}

func (r *Room) playerCount() int {
	if r.Guest == "" {
		return 1
	}
	return 2
}

// resetToWaiting reverts a room to its single-occupant state after a guest
// departure. An in-progress game is abandoned without recording a winner.
func (r *Room) resetToWaiting() {
	r.Guest = ""
	r.Status = StatusWaiting
	r.Position = ""
	r.MoveHistory = nil
	r.Winner = ""
	r.Outcome = ""
}

// Summary is the directory-listing view of a room.
type Summary struct {
	Code        string
	Owner       string
	Guest       string
	Status      Status
	PlayerCount int
}

func (r *Room) summary() Summary {
	return Summary{
		Code:        r.Code,
		Owner:       r.Owner,
		Guest:       r.Guest,
		Status:      r.Status,
		PlayerCount: r.playerCount(),
	}
}

// Snapshot is a full copy of a room's observable state at a point in time.
type Snapshot struct {
	Code        string
	Owner       string
	Guest       string
	Status      Status
	Position    string
	MoveHistory []string
	Winner      string
	Outcome     string
	CreatedAt   time.Time
}

func (r *Room) snapshot() *Snapshot {
	return &Snapshot{
		Code:        r.Code,
		Owner:       r.Owner,
		Guest:       r.Guest,
		Status:      r.Status,
		Position:    r.Position,
		MoveHistory: append([]string(nil), r.MoveHistory...),
		Winner:      r.Winner,
		Outcome:     r.Outcome,
		CreatedAt:   r.CreatedAt,
	}
}
