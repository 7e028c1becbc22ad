package videoframe

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// VideoSource abstracts frame origin so FrameBatchAlgo does not hard-code a
// single capture backend. FileVideoSource wraps a recorded file;
// RTSPVideoSource wraps a live GStreamer capture.
type VideoSource interface {
	// Read decodes the next frame. It returns false once the source is
	// exhausted (file EOF) or a read genuinely fails; a live source that is
	// merely waiting for the next frame blocks rather than returning false.
	Read() (Frame, bool)
	// Seek moves to an absolute 0-indexed frame. File sources only; live
	// sources return an error.
	Seek(frameIndex int) error
	// Close releases underlying capture resources. Idempotent.
	Close() error
	// Resolution reports the probed frame dimensions.
	Resolution() (width, height int)
}

// FileVideoSource reads frames from a file-backed gocv.VideoCapture.
type FileVideoSource struct {
	cap   *gocv.VideoCapture
	seq   uint64
	index int
	w, h  int
}

// OpenFileVideoSource opens path via gocv.OpenVideoCapture and probes its
// dimensions.
func OpenFileVideoSource(path string) (*FileVideoSource, error) {
	cap, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("videoframe: open video capture %q: %w", path, err)
	}

	w := int(cap.Get(gocv.VideoCaptureFrameWidth))
	h := int(cap.Get(gocv.VideoCaptureFrameHeight))
	return &FileVideoSource{cap: cap, w: w, h: h}, nil
}

// Read decodes the next frame, reporting false at end of file or on a
// corrupted read.
func (s *FileVideoSource) Read() (Frame, bool) {
	mat := gocv.NewMat()
	if !s.cap.Read(&mat) || mat.Empty() {
		mat.Close()
		return Frame{}, false
	}

	f := Frame{
		Seq:        s.seq,
		Mat:        mat,
		FrameIndex: s.index,
	}
	s.seq++
	s.index++
	return f, true
}

// Seek moves the capture to an absolute frame index.
func (s *FileVideoSource) Seek(frameIndex int) error {
	if !s.cap.Set(gocv.VideoCapturePosFrames, float64(frameIndex)) {
		return fmt.Errorf("videoframe: seek to frame %d failed", frameIndex)
	}
	s.index = frameIndex
	return nil
}

// Close releases the underlying capture.
func (s *FileVideoSource) Close() error {
	return s.cap.Close()
}

// Resolution returns the probed frame dimensions.
func (s *FileVideoSource) Resolution() (width, height int) {
	return s.w, s.h
}

// cropToRect returns a cloned sub-region of mat, or mat itself (cloned) if
// rect is the zero value (meaning "no crop configured").
func cropToRect(mat gocv.Mat, rect image.Rectangle) gocv.Mat {
	if rect.Empty() {
		return mat.Clone()
	}
	region := mat.Region(rect)
	out := region.Clone()
	region.Close()
	return out
}
