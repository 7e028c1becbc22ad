package highlight

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

// floodFillFixedRange mirrors OpenCV's FLOODFILL_FIXED_RANGE flag: the
// seeded floodfill compares each candidate pixel against the seed pixel
// rather than against its immediate neighbour, so brightness does not drift
// across a filled region.
const floodFillFixedRange = 1 << 16

// Config parameterizes HighlightObjectsAlgo.
type Config struct {
	// Background is the reference frame every incoming fragment is diffed
	// against. Owned by the caller; Algo never closes it.
	Background gocv.Mat
	// StructElement is the structuring element used by both passes' opening
	// morphology. Owned by the caller; Algo never closes it.
	StructElement gocv.Mat

	// Threshold is the coarse pass's cutoff; -1 selects Otsu's automatic
	// threshold instead of a fixed value.
	Threshold int
	// ThresholdLo and ThresholdHi bound the hysteresis pass: pixels above
	// ThresholdHi seed a floodfill across the ThresholdLo mask.
	ThresholdLo, ThresholdHi int

	// MinSizeThreshold discards coarse-pass contours smaller than this area.
	MinSizeThreshold float64
	// MinSizeHyst discards hysteresis-pass contours smaller than this area.
	MinSizeHyst float64

	// WidthBorder is retained for configuration-surface compatibility with
	// the source; the deprecated frame-and-fill step it fed is not
	// implemented (see the project's Open Question decisions).
	WidthBorder int
}

// Algo is a pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment]
// implementing HighlightObjectsAlgo: every inserted fragment produces
// exactly one highlighted-mask fragment, so results are always available by
// the next TryGetResult call.
type Algo struct {
	cfg     Config
	pending []videoframe.Fragment
	done    bool
}

// New constructs a HighlightObjectsAlgo from cfg.
func New(cfg Config) *Algo {
	return &Algo{cfg: cfg}
}

// Insert computes the highlighted mask for token and enqueues it.
func (a *Algo) Insert(token videoframe.Fragment) {
	mask := highlightFrame(token.Mat, a.cfg)
	token.Mat.Close()

	result := token
	result.Mat = mask
	a.pending = append(a.pending, result)
}

// TryGetResult pops the oldest pending highlighted fragment.
func (a *Algo) TryGetResult() (videoframe.Fragment, bool) {
	if len(a.pending) == 0 {
		var zero videoframe.Fragment
		return zero, false
	}
	r := a.pending[0]
	a.pending = a.pending[1:]
	return r, true
}

// NotifyNoMoreTokens marks the algo done; every result was already produced
// synchronously by Insert.
func (a *Algo) NotifyNoMoreTokens() { a.done = true }

// HasResults reports whether a highlighted fragment is pending.
func (a *Algo) HasResults() bool { return len(a.pending) > 0 }

// highlightFrame implements the coarse-pass/hysteresis-pass/bitwise-OR merge
// against cfg.Background.
func highlightFrame(frame gocv.Mat, cfg Config) gocv.Mat {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(cfg.Background, frame, &diff)

	coarse := coarsePass(diff, cfg)
	hyst := hysteresisPass(diff, cfg)
	defer hyst.Close()

	merged := gocv.NewMat()
	gocv.BitwiseOr(coarse, hyst, &merged)
	coarse.Close()
	return merged
}

// coarsePass thresholds, opens, drops small contours and fills holes: the
// low-threshold/high-minimum-size half of the algorithm, catching faint,
// large objects.
func coarsePass(diff gocv.Mat, cfg Config) gocv.Mat {
	bw := thresholdBinary(diff, cfg.Threshold)

	opened := gocv.NewMat()
	gocv.MorphologyEx(bw, &opened, gocv.MorphOpen, cfg.StructElement)
	bw.Close()

	removeSmallObjects(&opened, cfg.MinSizeThreshold)
	fillHoles(&opened)
	return opened
}

// hysteresisPass thresholds with hysteresis, opens, drops small contours and
// fills holes: the dual-threshold/low-minimum-size half, catching distinct,
// small objects.
func hysteresisPass(diff gocv.Mat, cfg Config) gocv.Mat {
	bw := hysteresisThreshold(diff, cfg.ThresholdLo, cfg.ThresholdHi)

	opened := gocv.NewMat()
	gocv.MorphologyEx(bw, &opened, gocv.MorphOpen, cfg.StructElement)
	bw.Close()

	removeSmallObjects(&opened, cfg.MinSizeHyst)
	fillHoles(&opened)
	return opened
}

// thresholdBinary applies a fixed threshold, or Otsu's automatic threshold
// when threshold is -1.
func thresholdBinary(src gocv.Mat, threshold int) gocv.Mat {
	dst := gocv.NewMat()
	if threshold < 0 {
		gocv.Threshold(src, &dst, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)
		return dst
	}
	gocv.Threshold(src, &dst, float32(threshold), 255, gocv.ThresholdBinary)
	return dst
}

// hysteresisThreshold replaces scikit-image's hysteresis_threshold using
// only OpenCV primitives: pixels above thresholdHi seed a fixed-range
// floodfill across the thresholdLo mask, then anything the floodfill didn't
// reach is thresholded back to black.
func hysteresisThreshold(src gocv.Mat, thresholdLo, thresholdHi int) gocv.Mat {
	upper := gocv.NewMat()
	gocv.Threshold(src, &upper, float32(thresholdHi), 128, gocv.ThresholdBinary)
	defer upper.Close()

	lower := gocv.NewMat()
	gocv.Threshold(src, &lower, float32(thresholdLo), 128, gocv.ThresholdBinary)

	contours := gocv.FindContours(upper, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if contour.Size() == 0 {
			continue
		}
		seed := contour.At(0)
		gocv.FloodFill(&lower, &mask, seed, white, nil, color.RGBA{}, color.RGBA{}, floodFillFixedRange)
	}

	result := gocv.NewMat()
	gocv.Threshold(lower, &result, 200, 255, gocv.ThresholdBinary)
	lower.Close()
	return result
}

// removeSmallObjects blackens every contour whose area is under minSize,
// replacing skimage.morphology.remove_small_objects.
func removeSmallObjects(image *gocv.Mat, minSize float64) {
	contours := gocv.FindContours(*image, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	black := color.RGBA{}
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		if gocv.ContourArea(contour) < minSize {
			small := gocv.NewPointsVectorFromPoints([][]image.Point{contour.ToPoints()})
			gocv.DrawContours(image, small, -1, black, -1)
			small.Close()
		}
	}
}

// fillHoles fills enclosed holes white while leaving open ones black, per
// the flood-from-corner/invert/OR technique.
func fillHoles(img *gocv.Mat) {
	floodfilled := img.Clone()
	defer floodfilled.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.FloodFill(&floodfilled, &mask, image.Pt(0, 0), white, nil, color.RGBA{}, color.RGBA{}, 0)

	inverted := gocv.NewMat()
	gocv.BitwiseNot(floodfilled, &inverted)

	gocv.BitwiseOr(*img, inverted, img)
	inverted.Close()
}
