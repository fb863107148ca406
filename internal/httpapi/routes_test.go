package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/vhoang/covua-server/internal/board"
	"github.com/vhoang/covua-server/internal/record"
	"github.com/vhoang/covua-server/internal/room"
	"github.com/vhoang/covua-server/internal/rules"
)

func newTestServer(t *testing.T) (*httptest.Server, *room.Directory, *record.Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	records, err := record.NewStore(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("record.NewStore: %v", err)
	}
	t.Cleanup(func() { records.Close() })

	rooms := room.NewDirectory(rules.New(), 4)
	mux := NewMux(Deps{
		WSHandler: func(w http.ResponseWriter, r *http.Request) {},
		Rooms:     rooms,
		Renderer:  board.NewRenderer(),
		Records:   records,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, rooms, records
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestBoardPNG(t *testing.T) {
	srv, rooms, _ := newTestServer(t)
	snap, err := rooms.Create("alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/rooms/" + snap.Code + "/board.png")
	if err != nil {
		t.Fatalf("GET board.png: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content-type = %q", ct)
	}

	missing, err := http.Get(srv.URL + "/api/rooms/ZZZZ/board.png")
	if err != nil {
		t.Fatalf("GET missing: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing room status = %d", missing.StatusCode)
	}
}

func TestGameRecordRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/newGame", "application/json",
		strings.NewReader(`{"player1":"alice","player2":"bob"}`))
	if err != nil {
		t.Fatalf("POST newGame: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created record.Record
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Owner != "alice" {
		t.Fatalf("created = %+v", created)
	}

	got, err := http.Get(srv.URL + "/api/game/" + created.ID)
	if err != nil {
		t.Fatalf("GET game: %v", err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", got.StatusCode)
	}

	missing, err := http.Get(srv.URL + "/api/game/no-such-id")
	if err != nil {
		t.Fatalf("GET missing game: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing game status = %d", missing.StatusCode)
	}

	idx, err := http.Get(srv.URL + "/api/players/alice/games")
	if err != nil {
		t.Fatalf("GET player games: %v", err)
	}
	defer idx.Body.Close()
	var listing map[string][]string
	if err := json.NewDecoder(idx.Body).Decode(&listing); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(listing["game_ids"]) != 1 || listing["game_ids"][0] != created.ID {
		t.Fatalf("index = %v", listing)
	}
}

func TestRecordRoutesWithoutStore(t *testing.T) {
	rooms := room.NewDirectory(rules.New(), 4)
	mux := NewMux(Deps{
		WSHandler: func(w http.ResponseWriter, r *http.Request) {},
		Rooms:     rooms,
		Renderer:  board.NewRenderer(),
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/game/some-id")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
