package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vhoang/covua-server/internal/obslog"
	"github.com/vhoang/covua-server/internal/rules"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room is full or not joinable")
	ErrNotInRoom    = errors.New("identity does not occupy this room")
	ErrNotPlaying   = errors.New("room is not playing")
	ErrInvalidArgs  = errors.New("invalid arguments")
)

// Directory maps room codes to rooms and is the single source of truth for
// room existence. The map is guarded by its own lock; each room serializes
// its own mutations, so unrelated rooms never block each other.
type Directory struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	codeLen int
	engine  rules.Engine
}

func NewDirectory(engine rules.Engine, codeLen int) *Directory {
	if codeLen < 4 {
		codeLen = 4
	}
	return &Directory{
		rooms:   make(map[string]*Room),
		codeLen: codeLen,
		engine:  engine,
	}
}

// Create inserts a new waiting room owned by owner and returns its snapshot.
// One-room-per-identity is enforced by the caller against the Connection
// record, not by scanning the directory.
func (d *Directory) Create(owner string) (*Snapshot, error) {
	if owner == "" {
		return nil, ErrInvalidArgs
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var code string
	for {
		c, err := newCode(d.codeLen)
		if err != nil {
			return nil, err
		}
		if _, taken := d.rooms[c]; !taken {
			code = c
			break
		}
	}
	r := &Room{
		Code:      code,
		Owner:     owner,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}
	d.rooms[code] = r
	obslog.L().Info("room_create", zap.String("code", code), zap.String("owner", owner))
	return r.snapshot(), nil
}

// Lookup returns a snapshot of the room, or ErrRoomNotFound.
func (d *Directory) Lookup(code string) (*Snapshot, error) {
	r, err := d.room(code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

// Join seats guest into a waiting room, moving it to ready. Any non-waiting
// status rejects the join and leaves the room untouched.
func (d *Directory) Join(code, guest string) (*Snapshot, error) {
	if guest == "" {
		return nil, ErrInvalidArgs
	}
	r, err := d.room(code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status != StatusWaiting {
		return nil, ErrRoomFull
	}
	r.Guest = guest
	r.Status = StatusReady
	obslog.L().Info("room_join", zap.String("code", r.Code), zap.String("guest", guest))
	return r.snapshot(), nil
}

// StartResult reports a successful ready → playing transition.
type StartResult struct {
	Room          *Snapshot
	WhiteIdentity string
	BlackIdentity string
	StartedAt     time.Time
}

// Start moves a ready room to playing. Only the owner may start, and only
// from ready with a guest present; any other combination is a silent no-op
// so stale or duplicate start requests stay harmless.
func (d *Directory) Start(code, requester string) (*StartResult, bool) {
	r, err := d.room(code)
	if err != nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Owner != requester || r.Status != StatusReady || r.Guest == "" {
		return nil, false
	}
	r.Status = StatusPlaying
	r.Position = rules.StartingPosition()
	r.MoveHistory = nil
	obslog.L().Info("room_start",
		zap.String("code", r.Code),
		zap.String("white", r.Owner),
		zap.String("black", r.Guest),
	)
	return &StartResult{
		Room:          r.snapshot(),
		WhiteIdentity: r.Owner, // owner is always the white side
		BlackIdentity: r.Guest,
		StartedAt:     time.Now(),
	}, true
}

// MoveOutcome reports an accepted move and, when terminal, the game result.
type MoveOutcome struct {
	Room     *Snapshot
	Position string
	SAN      string
	Finished bool
	Winner   string // empty on draw
	Outcome  string // "checkmate" or "draw" when finished
}

// SubmitMove validates the candidate move against fromPosition through the
// rules engine and applies the verdict. Turn legality is delegated entirely
// to the engine: side to move is encoded in the position. Any engine error
// rejects the move with the room unchanged.
func (d *Directory) SubmitMove(code, mover, fromPosition, notation string) (*MoveOutcome, error) {
	r, err := d.room(code)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Status != StatusPlaying {
		return nil, ErrNotPlaying
	}
	if mover != r.Owner && mover != r.Guest {
		return nil, ErrNotInRoom
	}

	result, err := d.engine.ApplyMove(fromPosition, notation)
	if err != nil {
		obslog.L().Debug("move_reject",
			zap.String("code", r.Code),
			zap.String("mover", mover),
			zap.String("notation", notation),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", rules.ErrIllegalMove, err)
	}

	r.Position = result.Position
	r.MoveHistory = append(r.MoveHistory, result.SAN)

	out := &MoveOutcome{Position: result.Position, SAN: result.SAN}
	switch result.Verdict {
	case rules.Checkmate:
		r.Status = StatusFinished
		r.Winner = mover
		r.Outcome = OutcomeCheckmate
		out.Finished = true
		out.Winner = mover
		out.Outcome = OutcomeCheckmate
	case rules.Draw:
		r.Status = StatusFinished
		r.Outcome = OutcomeDraw
		out.Finished = true
		out.Outcome = OutcomeDraw
	}
	out.Room = r.snapshot()
	obslog.L().Info("room_move",
		zap.String("code", r.Code),
		zap.String("mover", mover),
		zap.String("san", result.SAN),
		zap.Bool("finished", out.Finished),
	)
	return out, nil
}

// DepartOutcome reports the directory mutation caused by a departure.
type DepartOutcome struct {
	Closed   bool      // owner departed, room removed
	Departed string    // identity that left
	Room     *Snapshot // nil when Closed
}

// Depart applies an identity leaving a room, voluntarily or by disconnect.
// Owner departure removes the room at any status; guest departure reverts
// the room to waiting. Both triggers share this single path.
func (d *Directory) Depart(code, identity string) (*DepartOutcome, error) {
	d.mu.Lock()
	r, ok := d.rooms[code]
	if !ok {
		d.mu.Unlock()
		return nil, ErrRoomNotFound
	}
	r.mu.Lock()
	if identity == r.Owner {
		delete(d.rooms, code)
		r.mu.Unlock()
		d.mu.Unlock()
		obslog.L().Info("room_close", zap.String("code", code), zap.String("owner", identity))
		return &DepartOutcome{Closed: true, Departed: identity}, nil
	}
	d.mu.Unlock()
	defer r.mu.Unlock()
	if identity != r.Guest {
		return nil, ErrNotInRoom
	}
	r.resetToWaiting()
	obslog.L().Info("room_guest_leave", zap.String("code", code), zap.String("guest", identity))
	return &DepartOutcome{Departed: identity, Room: r.snapshot()}, nil
}

// List returns summaries of all current rooms. Receivers treat the result
// as a full snapshot, so cross-room races self-heal on the next broadcast.
func (d *Directory) List() []Summary {
	d.mu.RLock()
	rooms := make([]*Room, 0, len(d.rooms))
	for _, r := range d.rooms {
		rooms = append(rooms, r)
	}
	d.mu.RUnlock()

	out := make([]Summary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		out = append(out, r.summary())
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (d *Directory) room(code string) (*Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}
