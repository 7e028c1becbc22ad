package videoframe

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

func makeFragment(layer, value int, outer, inner image.Rectangle, origin image.Point) Fragment {
	mat := gocv.NewMatWithSize(outer.Dy(), outer.Dx(), gocv.MatTypeCV8UC1)
	mat.SetTo(gocv.NewScalar(float64(value), 0, 0, 0))
	return Fragment{
		Frame:     Frame{Mat: mat},
		Layer:     layer,
		OuterRect: outer,
		InnerRect: inner,
		Origin:    origin,
	}
}

func TestFragmentAssemblerAssemblesOncePerLayer(t *testing.T) {
	c := NewFragmentAssemblerConsumer(2, 4, 2, gocv.MatTypeCV8UC1)

	full := image.Rect(0, 0, 2, 2)
	c.Consume(makeFragment(0, 10, full, full, image.Pt(0, 0)), 0)
	c.Consume(makeFragment(0, 20, full, full, image.Pt(2, 0)), 1)

	results := c.Finalize()
	if len(results) != 1 {
		t.Fatalf("got %d composites, want 1", len(results))
	}
	defer results[0].Close()

	if v := results[0].GetUCharAt(0, 0); v != 10 {
		t.Fatalf("left half = %d, want 10", v)
	}
	if v := results[0].GetUCharAt(0, 2); v != 20 {
		t.Fatalf("right half = %d, want 20", v)
	}
}

func TestFragmentAssemblerWaitsForAllSlots(t *testing.T) {
	c := NewFragmentAssemblerConsumer(2, 4, 2, gocv.MatTypeCV8UC1)
	full := image.Rect(0, 0, 2, 2)
	c.Consume(makeFragment(0, 10, full, full, image.Pt(0, 0)), 0)

	if results := c.Finalize(); len(results) != 0 {
		t.Fatalf("got %d composites before second slot filled, want 0", len(results))
	}
}
