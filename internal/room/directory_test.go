package room

import (
	"errors"
	"testing"

	"github.com/vhoang/covua-server/internal/rules"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	return NewDirectory(rules.New(), 4)
}

// readyRoom creates a room with both seats filled.
func readyRoom(t *testing.T, d *Directory, owner, guest string) string {
	t.Helper()
	snap, err := d.Create(owner)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := d.Join(snap.Code, guest); err != nil {
		t.Fatalf("Join: %v", err)
	}
	return snap.Code
}

// playingRoom additionally starts the game.
func playingRoom(t *testing.T, d *Directory, owner, guest string) string {
	t.Helper()
	code := readyRoom(t, d, owner, guest)
	if _, ok := d.Start(code, owner); !ok {
		t.Fatalf("Start refused")
	}
	return code
}

func TestCreateAssignsUniqueCodes(t *testing.T) {
	d := newTestDirectory(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		snap, err := d.Create("alice")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if len(snap.Code) != 4 {
			t.Fatalf("code %q has length %d", snap.Code, len(snap.Code))
		}
		if seen[snap.Code] {
			t.Fatalf("duplicate code %q", snap.Code)
		}
		seen[snap.Code] = true
		if snap.Status != StatusWaiting || snap.Owner != "alice" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
	}
}

func TestJoinRejectsNonWaiting(t *testing.T) {
	d := newTestDirectory(t)
	code := readyRoom(t, d, "alice", "bob")

	if _, err := d.Join(code, "carol"); !errors.Is(err, ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}
	snap, err := d.Lookup(code)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if snap.Guest != "bob" || snap.Status != StatusReady {
		t.Fatalf("rejected join mutated room: %+v", snap)
	}

	if _, err := d.Join("ZZZZ", "carol"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestStartOwnerAlwaysWhite(t *testing.T) {
	d := newTestDirectory(t)
	code := readyRoom(t, d, "alice", "bob")

	res, ok := d.Start(code, "alice")
	if !ok {
		t.Fatalf("Start refused")
	}
	if res.WhiteIdentity != "alice" || res.BlackIdentity != "bob" {
		t.Fatalf("colors = %q/%q, want alice/bob", res.WhiteIdentity, res.BlackIdentity)
	}
	if res.Room.Status != StatusPlaying || res.Room.Position == "" {
		t.Fatalf("unexpected room after start: %+v", res.Room)
	}
}

func TestStartSilentNoop(t *testing.T) {
	d := newTestDirectory(t)
	snap, _ := d.Create("alice")

	if _, ok := d.Start(snap.Code, "alice"); ok {
		t.Fatalf("start without guest should no-op")
	}

	code := readyRoom(t, d, "carol", "dave")
	if _, ok := d.Start(code, "dave"); ok {
		t.Fatalf("guest-initiated start should no-op")
	}
	if _, ok := d.Start(code, "carol"); !ok {
		t.Fatalf("owner start should succeed")
	}
	if _, ok := d.Start(code, "carol"); ok {
		t.Fatalf("duplicate start should no-op")
	}
	if _, ok := d.Start("ZZZZ", "carol"); ok {
		t.Fatalf("start of unknown room should no-op")
	}
}

func TestSubmitMoveGuards(t *testing.T) {
	d := newTestDirectory(t)
	code := readyRoom(t, d, "alice", "bob")

	if _, err := d.SubmitMove(code, "alice", "", "e4"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("move before start: expected ErrNotPlaying, got %v", err)
	}
	if _, ok := d.Start(code, "alice"); !ok {
		t.Fatalf("Start refused")
	}
	if _, err := d.SubmitMove(code, "mallory", rules.StartingPosition(), "e4"); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("outsider move: expected ErrNotInRoom, got %v", err)
	}

	snapBefore, _ := d.Lookup(code)
	if _, err := d.SubmitMove(code, "alice", snapBefore.Position, "e5"); !errors.Is(err, rules.ErrIllegalMove) {
		t.Fatalf("illegal move: expected ErrIllegalMove, got %v", err)
	}
	snapAfter, _ := d.Lookup(code)
	if snapAfter.Position != snapBefore.Position || len(snapAfter.MoveHistory) != 0 {
		t.Fatalf("rejected move mutated room: %+v", snapAfter)
	}
}

func TestSubmitMoveAppendsHistory(t *testing.T) {
	d := newTestDirectory(t)
	code := playingRoom(t, d, "alice", "bob")

	snap, _ := d.Lookup(code)
	out, err := d.SubmitMove(code, "alice", snap.Position, "e2e4")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if out.SAN != "e4" || out.Finished {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	snap, _ = d.Lookup(code)
	if len(snap.MoveHistory) != 1 || snap.MoveHistory[0] != "e4" {
		t.Fatalf("history = %v", snap.MoveHistory)
	}
	if snap.Position != out.Position {
		t.Fatalf("room position not advanced")
	}
}

func TestCheckmateFinishesWithMoverAsWinner(t *testing.T) {
	d := newTestDirectory(t)
	code := playingRoom(t, d, "alice", "bob")

	// fool's mate: the guest (black) delivers mate
	plies := []struct{ mover, move string }{
		{"alice", "f3"},
		{"bob", "e5"},
		{"alice", "g4"},
		{"bob", "Qh4#"},
	}
	var out *MoveOutcome
	for _, p := range plies {
		snap, _ := d.Lookup(code)
		var err error
		out, err = d.SubmitMove(code, p.mover, snap.Position, p.move)
		if err != nil {
			t.Fatalf("SubmitMove %q: %v", p.move, err)
		}
	}
	if !out.Finished || out.Winner != "bob" || out.Outcome != OutcomeCheckmate {
		t.Fatalf("unexpected terminal outcome: %+v", out)
	}
	snap, _ := d.Lookup(code)
	if snap.Status != StatusFinished || snap.Winner != "bob" {
		t.Fatalf("room after mate: %+v", snap)
	}

	if _, err := d.SubmitMove(code, "alice", snap.Position, "e4"); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("move after finish: expected ErrNotPlaying, got %v", err)
	}
}

func TestDrawFinishesWithoutWinner(t *testing.T) {
	d := newTestDirectory(t)
	code := playingRoom(t, d, "alice", "bob")

	// white to move, Qf7 is stalemate
	out, err := d.SubmitMove(code, "alice", "7k/8/6K1/5Q2/8/8/8/8 w - - 0 1", "Qf7")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if !out.Finished || out.Winner != "" || out.Outcome != OutcomeDraw {
		t.Fatalf("unexpected draw outcome: %+v", out)
	}
}

func TestOwnerDepartRemovesRoom(t *testing.T) {
	d := newTestDirectory(t)
	for _, phase := range []string{"waiting", "ready", "playing"} {
		var code string
		switch phase {
		case "waiting":
			snap, _ := d.Create("alice")
			code = snap.Code
		case "ready":
			code = readyRoom(t, d, "alice", "bob")
		case "playing":
			code = playingRoom(t, d, "alice", "bob")
		}
		out, err := d.Depart(code, "alice")
		if err != nil {
			t.Fatalf("%s: Depart: %v", phase, err)
		}
		if !out.Closed {
			t.Fatalf("%s: owner departure should close the room", phase)
		}
		if _, err := d.Lookup(code); !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("%s: room still present: %v", phase, err)
		}
	}
}

func TestGuestDepartRevertsToWaiting(t *testing.T) {
	d := newTestDirectory(t)
	code := playingRoom(t, d, "alice", "bob")

	snap, _ := d.Lookup(code)
	if _, err := d.SubmitMove(code, "alice", snap.Position, "e4"); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}

	out, err := d.Depart(code, "bob")
	if err != nil {
		t.Fatalf("Depart: %v", err)
	}
	if out.Closed {
		t.Fatalf("guest departure must not close the room")
	}
	if out.Room.Status != StatusWaiting || out.Room.Guest != "" {
		t.Fatalf("room not reverted: %+v", out.Room)
	}
	if out.Room.Winner != "" || len(out.Room.MoveHistory) != 0 || out.Room.Position != "" {
		t.Fatalf("abandoned game left residue: %+v", out.Room)
	}

	// the vacated seat is joinable again
	if _, err := d.Join(code, "carol"); err != nil {
		t.Fatalf("rejoin after guest leave: %v", err)
	}
}

func TestDepartByStranger(t *testing.T) {
	d := newTestDirectory(t)
	code := readyRoom(t, d, "alice", "bob")
	if _, err := d.Depart(code, "mallory"); !errors.Is(err, ErrNotInRoom) {
		t.Fatalf("expected ErrNotInRoom, got %v", err)
	}
	if _, err := d.Depart("ZZZZ", "alice"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestListSortsByCode(t *testing.T) {
	d := newTestDirectory(t)
	for _, owner := range []string{"a", "b", "c"} {
		if _, err := d.Create(owner); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	list := d.List()
	if len(list) != 3 {
		t.Fatalf("len(List) = %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Code >= list[i].Code {
			t.Fatalf("list not sorted: %v", list)
		}
	}
	if list[0].PlayerCount != 1 {
		t.Fatalf("PlayerCount = %d, want 1", list[0].PlayerCount)
	}
}
