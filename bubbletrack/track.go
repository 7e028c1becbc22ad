package bubbletrack

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/tracker"
	"github.com/UkoeHB/CvVidProc/videoframe"
)

// Record is the per-object state a Tracker accumulates: the object's last
// known position and size, and the frame it was last matched on.
type Record struct {
	Centroid       image.Point
	Area           float64
	FramesTracked  int
	LastFrameIndex int
}

// Tracker matches contours found in each incoming (already highlighted,
// binary) frame against the previous frame's live centroids, greedily by
// nearest distance. Objects unmatched for more than MaxMissedFrames
// consecutive frames are moved from live to archive.
type Tracker struct {
	// MaxMatchDistance is the furthest, in pixels, a detected centroid may be
	// from a live object's last centroid and still count as the same object.
	MaxMatchDistance float64
	// MaxMissedFrames is how many consecutive frames a live object may go
	// undetected before it is archived.
	MaxMissedFrames int
	// MinContourArea discards detected contours below this area before
	// matching, independent of HighlightObjectsAlgo's own size filters.
	MinContourArea float64

	missed map[int]int
}

// NewTracker constructs a Tracker with the given matching parameters.
func NewTracker(maxMatchDistance float64, maxMissedFrames int, minContourArea float64) *Tracker {
	return &Tracker{
		MaxMatchDistance: maxMatchDistance,
		MaxMissedFrames:  maxMissedFrames,
		MinContourArea:   minContourArea,
		missed:           make(map[int]int),
	}
}

// Track implements tracker.TrackFunc[Record]: it detects contours in frame,
// matches them against live, updates or archives entries, and assigns a new
// ID to every unmatched detection.
func (t *Tracker) Track(frame videoframe.Frame, frameIndex int, live, archive tracker.Table[Record], nextID int) (int, error) {
	detections := detectCentroids(frame.Mat, t.MinContourArea)

	matchedLive := make(map[int]bool, len(live))
	matchedDetections := make(map[int]bool, len(detections))

	for id, rec := range live {
		bestIdx := -1
		bestDist := t.MaxMatchDistance
		for i, d := range detections {
			if matchedDetections[i] {
				continue
			}
			dist := centroidDistance(rec.Centroid, d.centroid)
			if dist <= bestDist {
				bestDist = dist
				bestIdx = i
			}
		}
		if bestIdx >= 0 {
			matchedDetections[bestIdx] = true
			matchedLive[id] = true
			d := detections[bestIdx]
			live[id] = Record{
				Centroid:       d.centroid,
				Area:           d.area,
				FramesTracked:  rec.FramesTracked + 1,
				LastFrameIndex: frameIndex,
			}
			t.missed[id] = 0
		}
	}

	for id, rec := range live {
		if matchedLive[id] {
			continue
		}
		t.missed[id]++
		if t.missed[id] > t.MaxMissedFrames {
			archive[id] = rec
			delete(live, id)
			delete(t.missed, id)
		}
	}

	for i, d := range detections {
		if matchedDetections[i] {
			continue
		}
		live[nextID] = Record{
			Centroid:       d.centroid,
			Area:           d.area,
			FramesTracked:  1,
			LastFrameIndex: frameIndex,
		}
		t.missed[nextID] = 0
		nextID++
	}

	return nextID, nil
}

type detection struct {
	centroid image.Point
	area     float64
}

// detectCentroids finds external contours in mask and reports each one's
// bounding-box center and area, discarding anything under minArea.
func detectCentroids(mask gocv.Mat, minArea float64) []detection {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	detections := make([]detection, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minArea {
			continue
		}
		rect := gocv.BoundingRect(contour)
		detections = append(detections, detection{
			centroid: image.Pt(rect.Min.X+rect.Dx()/2, rect.Min.Y+rect.Dy()/2),
			area:     area,
		})
	}
	return detections
}

func centroidDistance(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
