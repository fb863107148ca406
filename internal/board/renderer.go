// Package board renders a position as a PNG image for the board snapshot
// route. Rendering never touches room state: it works from a FEN string.
package board

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	squareSize   = 60
	boardSquares = 8
	boardSize    = squareSize * boardSquares
	margin       = 22
)

var (
	lightSquare   = color.RGBA{233, 207, 163, 255}
	darkSquare    = color.RGBA{187, 136, 96, 255}
	marginColor   = color.RGBA{38, 34, 30, 255}
	coordColor    = color.NRGBA{R: 226, G: 214, B: 192, A: 255}
	highlightFill = color.NRGBA{R: 255, G: 228, B: 120, A: 130}
)

// RenderOptions controls orientation and the optional last-move highlight.
type RenderOptions struct {
	Flipped   bool // black side at the bottom
	Highlight []nchess.Square
}

// Renderer turns a FEN position into a PNG.
type Renderer interface {
	RenderPNG(ctx context.Context, fen string, opts RenderOptions) ([]byte, error)
}

type pngRenderer struct{}

func NewRenderer() Renderer { return pngRenderer{} }

func (pngRenderer) RenderPNG(ctx context.Context, fen string, opts RenderOptions) ([]byte, error) {
	pos, err := parsePosition(fen)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	total := boardSize + margin*2
	img := image.NewRGBA(image.Rect(0, 0, total, total))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginColor), image.Point{}, imagedraw.Src)

	origin := image.Point{X: margin, Y: margin}
	drawSquares(img, origin, opts.Flipped)
	for _, sq := range opts.Highlight {
		r := squareRect(sq, origin, opts.Flipped)
		imagedraw.Draw(img, r, image.NewUniform(highlightFill), image.Point{}, imagedraw.Over)
	}
	if err := drawPieces(img, pos.Board(), origin, opts.Flipped); err != nil {
		return nil, err
	}
	drawCoordinates(img, origin, opts.Flipped)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func parsePosition(fen string) (*nchess.Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "startpos" {
		return nchess.NewGame().Position(), nil
	}
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return nchess.NewGame(option).Position(), nil
}

func drawSquares(dst imagedraw.Image, origin image.Point, flipped bool) {
	for file := 0; file < boardSquares; file++ {
		for rank := 0; rank < boardSquares; rank++ {
			sq := nchess.NewSquare(nchess.File(file), nchess.Rank(rank))
			clr := lightSquare
			if (file+rank)%2 == 0 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, squareRect(sq, origin, flipped), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, b *nchess.Board, origin image.Point, flipped bool) error {
	for sq, piece := range b.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		img, err := renderPieceImage(piece, squareSize)
		if err != nil {
			return err
		}
		imagedraw.Draw(dst, squareRect(sq, origin, flipped), img, image.Point{}, imagedraw.Over)
	}
	return nil
}

// squareRect maps a square to pixels; white at the bottom unless flipped.
func squareRect(sq nchess.Square, origin image.Point, flipped bool) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	if flipped {
		col = 7 - col
		row = 7 - row
	}
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawCoordinates(img *image.RGBA, origin image.Point, flipped bool) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(coordColor),
		Face: basicfont.Face7x13,
	}
	for i := 0; i < boardSquares; i++ {
		fileIdx, rankIdx := i, i
		if flipped {
			fileIdx = 7 - i
			rankIdx = 7 - i
		}
		fileLabel := string(rune('a' + fileIdx))
		rankLabel := string(rune('1' + rankIdx))

		// files along the bottom margin
		x := origin.X + i*squareSize + squareSize/2 - 3
		y := origin.Y + boardSize + margin/2 + 5
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(fileLabel)

		// ranks up the left margin
		x = origin.X - margin/2 - 3
		y = origin.Y + (7-i)*squareSize + squareSize/2 + 5
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(rankLabel)
	}
}
