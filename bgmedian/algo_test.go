package bgmedian

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

func fragmentOf(t *testing.T, val byte) videoframe.Fragment {
	t.Helper()
	mat := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC1)
	mat.SetUCharAt(0, 0, val)
	mat.SetUCharAt(0, 1, val)
	mat.SetUCharAt(1, 0, val)
	mat.SetUCharAt(1, 1, val)

	return videoframe.Fragment{
		Frame:     videoframe.Frame{Mat: mat},
		Layer:     3,
		OuterRect: image.Rect(0, 0, 2, 2),
		InnerRect: image.Rect(0, 0, 2, 2),
		Origin:    image.Pt(4, 6),
	}
}

func TestAlgoMedianOfOddCount(t *testing.T) {
	a := New[uint8]()

	for _, v := range []byte{10, 20, 30} {
		a.Insert(fragmentOf(t, v))
	}
	a.NotifyNoMoreTokens()

	if !a.HasResults() {
		t.Fatalf("HasResults() = false, want true")
	}

	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult: ok = false, want true")
	}
	if got := result.Mat.GetUCharAt(0, 0); got != 20 {
		t.Fatalf("median = %d, want 20", got)
	}
	if result.Layer != 3 || result.Origin != image.Pt(4, 6) {
		t.Fatalf("result geometry = %+v, want Layer=3 Origin=(4,6)", result)
	}

	if _, ok := a.TryGetResult(); ok {
		t.Fatalf("TryGetResult should only produce a result once")
	}
	result.Mat.Close()
}

func TestAlgoMedianOfEvenCount(t *testing.T) {
	a := New[uint8]()

	for _, v := range []byte{10, 20} {
		a.Insert(fragmentOf(t, v))
	}
	a.NotifyNoMoreTokens()

	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult: ok = false, want true")
	}
	if got := result.Mat.GetUCharAt(0, 0); got != 20 {
		t.Fatalf("median = %d, want 20", got)
	}
	result.Mat.Close()
}

func TestAlgoNoFramesProducesNoResult(t *testing.T) {
	a := New[uint8]()
	a.NotifyNoMoreTokens()

	if a.HasResults() {
		t.Fatalf("HasResults() = true, want false with zero frames inserted")
	}
	if _, ok := a.TryGetResult(); ok {
		t.Fatalf("TryGetResult: ok = true, want false with zero frames inserted")
	}
}

// TestAlgoMedianBacktracksThroughSaturatedBucket drives the two-pass
// saturation-backtrack branch of medianFromHistograms: a uint8 counter
// saturates at 255, so a bucket fed more than that many frames under-reports
// its true weight. A forward-only sweep against the real frame count would
// stop at a higher-valued bucket than the data supports; the backward pass
// must recompute the halfway point against what the histogram actually
// observed and settle back on the lower, saturated bucket.
func TestAlgoMedianBacktracksThroughSaturatedBucket(t *testing.T) {
	a := New[uint8]()

	insertN := func(val byte, n int) {
		for i := 0; i < n; i++ {
			a.Insert(fragmentOf(t, val))
		}
	}

	// hist[5] saturates at 255 despite 300 real insertions; hist[10] and
	// hist[200] are unsaturated. Forward sweep against the true frame count
	// (700) crosses its halfway point at bucket 10, but the histogram only
	// actually observed 655 frames once saturation is accounted for, and
	// the backward pass must walk back down to bucket 5.
	insertN(5, 300)
	insertN(10, 200)
	insertN(200, 200)
	a.NotifyNoMoreTokens()

	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult: ok = false, want true")
	}
	if got := result.Mat.GetUCharAt(0, 0); got != 5 {
		t.Fatalf("backtracked median = %d, want 5", got)
	}
	result.Mat.Close()
}

func TestSelectCounterWidth(t *testing.T) {
	cases := []struct {
		frames int
		want   CounterWidth
	}{
		{1, Counter8},
		{255, Counter8},
		{256, Counter16},
		{70000, Counter32},
	}
	for _, c := range cases {
		if got := SelectCounterWidth(c.frames); got != c.want {
			t.Errorf("SelectCounterWidth(%d) = %v, want %v", c.frames, got, c.want)
		}
	}
}
