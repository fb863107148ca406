package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository archives final results to Postgres. Optional: wired only when
// DATABASE_URL is configured.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Archive upserts a finished record keyed by record ID.
func (r *Repository) Archive(ctx context.Context, rec *Record) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	movesRaw, _ := json.Marshal(rec.MoveHistory)
	finished := rec.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	q := `INSERT INTO finished_games (
	    record_id, room_code, owner_identity, guest_identity,
	    outcome, winner, moves_san, movetext, created_at, finished_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
	  ) ON CONFLICT (record_id) DO UPDATE SET
	    room_code=EXCLUDED.room_code,
	    owner_identity=EXCLUDED.owner_identity,
	    guest_identity=EXCLUDED.guest_identity,
	    outcome=EXCLUDED.outcome,
	    winner=EXCLUDED.winner,
	    moves_san=EXCLUDED.moves_san,
	    movetext=EXCLUDED.movetext,
	    created_at=EXCLUDED.created_at,
	    finished_at=EXCLUDED.finished_at`

	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.RoomCode, rec.Owner, rec.Guest,
		rec.Outcome, rec.Winner, string(movesRaw), buildMovetext(rec),
		rec.CreatedAt, finished,
	)
	return err
}

// buildMovetext renders the SAN history as numbered movetext with a result
// token, the portable text form of the game.
func buildMovetext(rec *Record) string {
	var b strings.Builder
	for i := 0; i < len(rec.MoveHistory); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(rec.MoveHistory[i]))
		if i+1 < len(rec.MoveHistory) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.MoveHistory[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(resultToken(rec))
	return b.String()
}

func resultToken(rec *Record) string {
	switch {
	case rec.Outcome == "draw":
		return "1/2-1/2"
	case rec.Winner != "" && rec.Winner == rec.Owner:
		return "1-0" // owner always plays white
	case rec.Winner != "" && rec.Winner == rec.Guest:
		return "0-1"
	default:
		return "*"
	}
}
