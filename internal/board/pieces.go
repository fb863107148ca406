package board

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Flat piece glyphs as inline SVG bodies on a 45x45 viewBox. Fill and
// stroke are substituted per side when the document is assembled.
var pieceGlyphs = map[nchess.PieceType]string{
	nchess.Pawn: `<circle cx="22.5" cy="15" r="6.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M15 38 L18 24 Q22.5 20 27 24 L30 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Rook: `<rect x="13" y="12" width="19" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="13" y="8" width="4" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="20.5" y="8" width="4" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="28" y="8" width="4" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M16 17 L16 32 L13 38 L32 38 L29 32 L29 17 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Knight: `<path d="M14 38 L16 24 Q13 22 15 17 Q20 8 29 10 Q32 14 31 20 L26 24 Q31 28 31 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="24" cy="14.5" r="1.3" fill="%[2]s"/>`,
	nchess.Bishop: `<circle cx="22.5" cy="9.5" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M22.5 12 Q29 18 27 26 Q25 30 22.5 30 Q20 30 18 26 Q16 18 22.5 12 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M15 38 L17 32 L28 32 L30 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.Queen: `<path d="M12 14 L16 24 L19 12 L22.5 23 L26 12 L29 24 L33 14 L31 32 L14 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M13 34 L32 34 L31 38 L14 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	nchess.King: `<rect x="21" y="6" width="3" height="8" fill="%[2]s"/>
<rect x="18.5" y="8.5" width="8" height="3" fill="%[2]s"/>
<path d="M14 18 Q22.5 12 31 18 L29 32 L16 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M13 34 L32 34 L31 38 L14 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

type pieceCacheKey struct {
	piece nchess.Piece
	size  int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceDocument(piece nchess.Piece) (string, error) {
	glyph, ok := pieceGlyphs[piece.Type()]
	if !ok {
		return "", fmt.Errorf("no glyph for piece type %v", piece.Type())
	}
	fill, stroke := "#f4f4f4", "#2b2b2b"
	if piece.Color() == nchess.Black {
		fill, stroke = "#2b2b2b", "#e4e4e4"
	}
	body := fmt.Sprintf(glyph, fill, stroke)
	return `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 45 45">` + body + `</svg>`, nil
}

func renderPieceImage(piece nchess.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{piece: piece, size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	doc, err := pieceDocument(piece)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader([]byte(doc)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()

	return img, nil
}
