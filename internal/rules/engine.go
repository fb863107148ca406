// Package rules is the boundary to the chess rules engine. The coordinator
// never decides legality or termination itself; every verdict comes from
// here, and every engine failure is reported as an illegal move (fail
// closed, never fail open to an unvalidated position).
package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrIllegalMove = errors.New("illegal move")

// Verdict classifies a position.
type Verdict int

const (
	Ongoing Verdict = iota
	Checkmate
	Draw
)

func (v Verdict) String() string {
	switch v {
	case Checkmate:
		return "checkmate"
	case Draw:
		return "draw"
	default:
		return "ongoing"
	}
}

// MoveResult is the engine's acceptance of a candidate move.
type MoveResult struct {
	Position string // resulting position, FEN
	SAN      string // accepted move in algebraic notation
	Verdict  Verdict
}

// Engine validates a candidate move against a position and classifies
// positions. Side to move is encoded in the position itself.
type Engine interface {
	ApplyMove(position, move string) (*MoveResult, error)
	Classify(position string) (Verdict, error)
}

type chessEngine struct{}

func New() Engine { return chessEngine{} }

// StartingPosition returns the initial position in FEN.
func StartingPosition() string {
	return nchess.NewGame().FEN()
}

func (chessEngine) ApplyMove(position, move string) (*MoveResult, error) {
	game, err := buildGame(position)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	raw := strings.TrimSpace(move)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty move", ErrIllegalMove)
	}

	pos := game.Position()
	var san string
	if mv, derr := (nchess.UCINotation{}).Decode(pos, strings.ToLower(raw)); derr == nil {
		if merr := game.Move(mv, nil); merr != nil {
			return nil, fmt.Errorf("%w: %s", ErrIllegalMove, raw)
		}
		san = nchess.AlgebraicNotation{}.Encode(pos, mv)
	} else if perr := game.PushNotationMove(raw, nchess.AlgebraicNotation{}, nil); perr == nil {
		moves := game.Moves()
		if len(moves) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrIllegalMove, raw)
		}
		san = nchess.AlgebraicNotation{}.Encode(pos, moves[len(moves)-1])
	} else {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, raw)
	}

	return &MoveResult{
		Position: game.FEN(),
		SAN:      san,
		Verdict:  classify(game),
	}, nil
}

func (chessEngine) Classify(position string) (Verdict, error) {
	game, err := buildGame(position)
	if err != nil {
		return Ongoing, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	return classify(game), nil
}

func classify(game *nchess.Game) Verdict {
	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		return Checkmate
	case nchess.Draw:
		return Draw
	default:
		return Ongoing
	}
}

func buildGame(position string) (*nchess.Game, error) {
	fen := strings.TrimSpace(position)
	if fen == "" || fen == "startpos" {
		return nchess.NewGame(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return nchess.NewGame(option), nil
}
