package highlight

import (
	"image"
	"testing"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

func solidFrame(t *testing.T, rows, cols int, val byte) gocv.Mat {
	t.Helper()
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC1)
	mat.SetTo(gocv.NewScalar(float64(val), 0, 0, 0))
	return mat
}

func newTestConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Background:       solidFrame(t, 32, 32, 0),
		StructElement:    gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(3, 3)),
		Threshold:        40,
		ThresholdLo:      20,
		ThresholdHi:      60,
		MinSizeThreshold: 4,
		MinSizeHyst:      4,
		WidthBorder:      2,
	}
}

func TestAlgoProducesOneResultPerInsert(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Background.Close()
	defer cfg.StructElement.Close()

	a := New(cfg)

	if a.HasResults() {
		t.Fatalf("HasResults() = true before any Insert")
	}

	frame := solidFrame(t, 32, 32, 200)
	a.Insert(videoframe.Fragment{
		Frame:  videoframe.Frame{Mat: frame, FrameIndex: 7},
		Origin: image.Pt(5, 5),
	})

	if !a.HasResults() {
		t.Fatalf("HasResults() = false after Insert")
	}

	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult: ok = false, want true")
	}
	if result.FrameIndex != 7 || result.Origin != image.Pt(5, 5) {
		t.Fatalf("result geometry = %+v, want FrameIndex=7 Origin=(5,5)", result)
	}
	result.Mat.Close()

	if a.HasResults() {
		t.Fatalf("HasResults() = true after draining the only pending result")
	}
}

func TestAlgoPendingResultDrainsAfterNotifyNoMoreTokens(t *testing.T) {
	cfg := newTestConfig(t)
	defer cfg.Background.Close()
	defer cfg.StructElement.Close()

	a := New(cfg)
	frame := solidFrame(t, 16, 16, 100)
	a.Insert(videoframe.Fragment{Frame: videoframe.Frame{Mat: frame}})
	a.NotifyNoMoreTokens()

	result, ok := a.TryGetResult()
	if !ok {
		t.Fatalf("TryGetResult after NotifyNoMoreTokens: ok = false, want true")
	}
	result.Mat.Close()

	if _, ok := a.TryGetResult(); ok {
		t.Fatalf("TryGetResult should report no more results once drained")
	}
}
