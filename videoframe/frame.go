package videoframe

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Frame is the token type that flows through the background-extraction and
// tracking pipelines: a decoded image plus the metadata needed to route and
// reassemble it.
type Frame struct {
	// Seq is the monotonic sequence number assigned at capture time.
	Seq uint64
	// Timestamp is when the frame was captured or decoded.
	Timestamp time.Time
	// Mat holds the decoded pixel data. Callers that retain a Frame past the
	// point its owning stage releases resources must Clone the Mat first.
	Mat gocv.Mat
	// FrameIndex is the 0-indexed position of this frame within its source.
	FrameIndex int
}

// Fragment is a Frame further cut into a tile, carrying enough placement
// information to be pasted back into a full-size composite image.
type Fragment struct {
	Frame
	// Layer identifies which tile-grid cell this fragment occupies,
	// assigned column-major (column 1 cells, then column 2, ...).
	Layer int
	// OuterRect is the (possibly buffered) region that was extracted for
	// processing.
	OuterRect image.Rectangle
	// InnerRect is the un-buffered region within OuterRect that should be
	// pasted back into the reassembled image. It is expressed in OuterRect's
	// local coordinate space (i.e. relative to OuterRect.Min).
	InnerRect image.Rectangle
	// Origin is where InnerRect belongs in the full-size composite image.
	Origin image.Point
}

// TileGrid describes how a frame of width W and height H is cut into
// cols*rows fragments, each optionally expanded by hbuf/vbuf pixels on every
// side (clamped to the frame boundary).
type TileGrid struct {
	Width, Height int
	Cols, Rows    int
	HBuf, VBuf    int
}

// Layers returns the total tile count, cols*rows.
func (g TileGrid) Layers() int { return g.Cols * g.Rows }

// OuterAndInner computes, for tile (col, row), the outer (buffered,
// processing) rectangle and the inner (unbuffered, reassembly) rectangle, the
// latter expressed relative to the outer rectangle's origin. The trailing
// column absorbs W mod Cols extra pixels; the trailing row absorbs H mod Rows.
func (g TileGrid) OuterAndInner(col, row int) (outer, inner image.Rectangle) {
	baseW := g.Width / g.Cols
	baseH := g.Height / g.Rows

	x0 := col * baseW
	y0 := row * baseH
	w := baseW
	h := baseH
	if col == g.Cols-1 {
		w = g.Width - x0
	}
	if row == g.Rows-1 {
		h = g.Height - y0
	}

	innerFull := image.Rect(x0, y0, x0+w, y0+h)

	ox0 := clampInt(x0-g.HBuf, 0, g.Width)
	oy0 := clampInt(y0-g.VBuf, 0, g.Height)
	ox1 := clampInt(x0+w+g.HBuf, 0, g.Width)
	oy1 := clampInt(y0+h+g.VBuf, 0, g.Height)
	outer = image.Rect(ox0, oy0, ox1, oy1)

	inner = image.Rect(
		innerFull.Min.X-outer.Min.X,
		innerFull.Min.Y-outer.Min.Y,
		innerFull.Max.X-outer.Min.X,
		innerFull.Max.Y-outer.Min.Y,
	)
	return outer, inner
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Tile cuts src into g.Layers() fragments, column-major, using the frame's
// metadata (seq/timestamp/frameIndex) for every resulting fragment. src is
// not modified; each fragment's Mat is a region clone safe to outlive src.
func Tile(src Frame, g TileGrid) []Fragment {
	fragments := make([]Fragment, 0, g.Layers())
	layer := 0
	for col := 0; col < g.Cols; col++ {
		for row := 0; row < g.Rows; row++ {
			outer, inner := g.OuterAndInner(col, row)
			region := src.Mat.Region(outer)
			tile := region.Clone()
			region.Close()

			fragments = append(fragments, Fragment{
				Frame: Frame{
					Seq:        src.Seq,
					Timestamp:  src.Timestamp,
					Mat:        tile,
					FrameIndex: src.FrameIndex,
				},
				Layer:     layer,
				OuterRect: outer,
				InnerRect: inner,
				Origin:    image.Pt(outer.Min.X+inner.Min.X, outer.Min.Y+inner.Min.Y),
			})
			layer++
		}
	}
	return fragments
}

// Untile pastes the inner (unbuffered) region of every fragment into its
// source position within a freshly allocated composite image of the given
// size and type. Fragments need not arrive in layer order.
func Untile(fragments []Fragment, width, height int, matType gocv.MatType) gocv.Mat {
	composite := gocv.NewMatWithSize(height, width, matType)
	for _, f := range fragments {
		inner := f.Mat.Region(f.InnerRect)
		dstRect := image.Rect(f.Origin.X, f.Origin.Y, f.Origin.X+f.InnerRect.Dx(), f.Origin.Y+f.InnerRect.Dy())
		dst := composite.Region(dstRect)
		inner.CopyTo(&dst)
		dst.Close()
		inner.Close()
	}
	return composite
}
