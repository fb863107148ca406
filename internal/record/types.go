// Package record is the finished-game record store. Live play never depends
// on it: every call is best-effort from the coordinator's point of view.
package record

import "time"

// Record is the persisted trace of a game session.
type Record struct {
	ID          string    `json:"id"`
	RoomCode    string    `json:"room_code"`
	Owner       string    `json:"owner"`
	Guest       string    `json:"guest,omitempty"`
	Status      string    `json:"status"`
	MoveHistory []string  `json:"move_history"`
	Winner      string    `json:"winner,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
}
