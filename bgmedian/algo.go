package bgmedian

import (
	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

// Counter is the set of unsigned integer widths a histogram bucket may use.
type Counter interface {
	~uint8 | ~uint16 | ~uint32
}

// Algo is a pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment]
// implementing HistogramMedianAlgo: it accumulates a per-element histogram
// of pixel values across every fragment inserted (all fragments routed to
// one instance share a tile position, so their shapes agree), then on
// NotifyNoMoreTokens computes the per-element median and emits a single
// Fragment carrying the result, with the geometry (Layer/OuterRect/
// InnerRect/Origin) of the first fragment it saw.
type Algo[C Counter] struct {
	histograms [][256]C
	framesSeen int

	rows, cols, channels int
	matType              gocv.MatType
	geometry             videoframe.Fragment
	haveGeometry         bool

	done     bool
	emitted  bool
	hasEmit  bool
	emitFrag videoframe.Fragment
}

// New constructs a HistogramMedianAlgo with an empty histogram table.
func New[C Counter]() *Algo[C] {
	return &Algo[C]{}
}

// Insert converts the fragment's Mat to a flat byte slice and increments
// one histogram bucket per element, saturating at the counter's maximum
// value rather than rolling over.
func (a *Algo[C]) Insert(token videoframe.Fragment) {
	mat := token.Mat
	if mat.Empty() {
		return
	}

	if !a.haveGeometry {
		a.geometry = token
		a.geometry.Mat = gocv.Mat{}
		a.haveGeometry = true

		a.rows = mat.Rows()
		a.cols = mat.Cols()
		a.channels = mat.Channels()
		a.matType = mat.Type()
		a.histograms = make([][256]C, a.rows*a.cols*a.channels)
	}

	data := mat.ToBytes()
	maxVal := maxCounter[C]()
	for e, v := range data {
		if e >= len(a.histograms) {
			break
		}
		if a.histograms[e][v] != maxVal {
			a.histograms[e][v]++
		}
	}

	a.framesSeen++
	mat.Close()
}

// TryGetResult returns the computed median fragment exactly once, after
// NotifyNoMoreTokens has been called.
func (a *Algo[C]) TryGetResult() (videoframe.Fragment, bool) {
	var zero videoframe.Fragment
	if !a.done || !a.hasEmit || a.emitted {
		return zero, false
	}
	a.emitted = true
	return a.emitFrag, true
}

// NotifyNoMoreTokens computes the per-element median from the accumulated
// histograms and stages it for TryGetResult.
func (a *Algo[C]) NotifyNoMoreTokens() {
	a.done = true
	if !a.haveGeometry || a.framesSeen == 0 {
		return
	}

	result := medianFromHistograms(a.histograms, a.framesSeen)
	mat, err := gocv.NewMatFromBytes(a.rows, a.cols, a.matType, result)
	if err != nil {
		return
	}

	a.emitFrag = a.geometry
	a.emitFrag.Mat = mat
	a.hasEmit = true
}

// HasResults reports whether the median result is computed and pending.
func (a *Algo[C]) HasResults() bool {
	return a.done && a.hasEmit && !a.emitted
}

// maxCounter returns the maximum representable value of C.
func maxCounter[C Counter]() C {
	var zero C
	switch any(zero).(type) {
	case uint8:
		return C(0xFF)
	case uint16:
		return C(0xFFFF)
	case uint32:
		return C(0xFFFFFFFF)
	default:
		return zero
	}
}

// medianFromHistograms implements the source's two-pass median-from-
// histogram algorithm: an initial forward sweep finds the bucket at which
// the running total first exceeds half the expected frame count, then (if
// counter saturation truncated the observed total) a backward sweep
// recomputes the halfway point against the actually-observed total.
func medianFromHistograms[C Counter](histograms [][256]C, frameCount int) []byte {
	out := make([]byte, len(histograms))
	expected := uint64(frameCount)

	for e, hist := range histograms {
		var accumulator uint64
		halfway := 0
		halfwaySet := false

		for v := 0; v < 256; v++ {
			accumulator += uint64(hist[v])
			if !halfwaySet && accumulator > expected/2 {
				halfway = v
				halfwaySet = true
			}
		}

		if accumulator != expected {
			observed := accumulator
			for idx := halfway; idx >= 0; idx-- {
				accumulator -= uint64(hist[idx])
				if accumulator < observed/2 {
					halfway = idx
					break
				}
			}
		}

		out[e] = byte(halfway)
	}

	return out
}
