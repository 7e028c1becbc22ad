package videoframe

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestTileGridOuterAndInnerCoversWholeFrame(t *testing.T) {
	grid := TileGrid{Width: 10, Height: 7, Cols: 3, Rows: 2, HBuf: 0, VBuf: 0}

	covered := make(map[[2]int]bool)
	for col := 0; col < grid.Cols; col++ {
		for row := 0; row < grid.Rows; row++ {
			outer, inner := grid.OuterAndInner(col, row)
			abs := inner.Add(outer.Min)
			for x := abs.Min.X; x < abs.Max.X; x++ {
				for y := abs.Min.Y; y < abs.Max.Y; y++ {
					covered[[2]int{x, y}] = true
				}
			}
		}
	}
	if len(covered) != grid.Width*grid.Height {
		t.Fatalf("covered %d pixels, want %d", len(covered), grid.Width*grid.Height)
	}
}

func TestTileGridTrailingTileAbsorbsRemainder(t *testing.T) {
	grid := TileGrid{Width: 10, Height: 10, Cols: 3, Rows: 1, HBuf: 0, VBuf: 0}
	_, inner := grid.OuterAndInner(2, 0)
	if inner.Dx() != 4 {
		t.Fatalf("trailing column width = %d, want 4 (10 = 3+3+4)", inner.Dx())
	}
}

func TestTileThenUntileIsIdentityWithZeroBuffers(t *testing.T) {
	src := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
	defer src.Close()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			src.SetUCharAt(i, j, byte(16*i+j))
		}
	}

	frame := Frame{Mat: src}
	grid := TileGrid{Width: 4, Height: 4, Cols: 2, Rows: 2, HBuf: 0, VBuf: 0}
	fragments := Tile(frame, grid)
	if len(fragments) != 4 {
		t.Fatalf("got %d fragments, want 4", len(fragments))
	}

	composite := Untile(fragments, 4, 4, gocv.MatTypeCV8UC1)
	defer composite.Close()

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := src.GetUCharAt(i, j)
			got := composite.GetUCharAt(i, j)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", i, j, got, want)
			}
		}
	}

	for _, f := range fragments {
		f.Mat.Close()
	}
}

// TestTileThenUntileIsIdentityWithBuffers exercises the buffered case
// (hbuf/vbuf > 0): OuterRect overlaps neighboring tiles, but InnerRect must
// still pick out exactly the unbuffered region so the round trip reproduces
// the source bit-for-bit.
func TestTileThenUntileIsIdentityWithBuffers(t *testing.T) {
	src := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC1)
	defer src.Close()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			src.SetUCharAt(i, j, byte(16*i+j))
		}
	}

	frame := Frame{Mat: src}
	grid := TileGrid{Width: 4, Height: 4, Cols: 2, Rows: 2, HBuf: 1, VBuf: 1}
	fragments := Tile(frame, grid)
	if len(fragments) != 4 {
		t.Fatalf("got %d fragments, want 4", len(fragments))
	}

	buffered := false
	for _, f := range fragments {
		if f.OuterRect.Dx() > f.InnerRect.Dx() || f.OuterRect.Dy() > f.InnerRect.Dy() {
			buffered = true
		}
	}
	if !buffered {
		t.Fatalf("expected at least one fragment's OuterRect to exceed its InnerRect with hbuf=1/vbuf=1")
	}

	composite := Untile(fragments, 4, 4, gocv.MatTypeCV8UC1)
	defer composite.Close()

	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			want := src.GetUCharAt(i, j)
			got := composite.GetUCharAt(i, j)
			if got != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", i, j, got, want)
			}
		}
	}

	for _, f := range fragments {
		f.Mat.Close()
	}
}
