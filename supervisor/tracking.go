package supervisor

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/highlight"
	"github.com/UkoeHB/CvVidProc/pipeline"
	"github.com/UkoeHB/CvVidProc/tracker"
	"github.com/UkoeHB/CvVidProc/videoframe"
)

// runTrackingPipeline chains HighlightObjectsAlgo (batch size 1, since Run
// configures no tiling) into TrackerBridgeAlgo through a
// pipeline.Intermediary, per the Chaining discipline: upstream runs on its
// own goroutine via pipeline.Chain, downstream runs synchronously on the
// caller's.
func runTrackingPipeline[R any](s *Supervisor, frameAlgo *videoframe.FrameBatchAlgo, width, height int, matType gocv.MatType, track tracker.TrackFunc[R]) (Result[R], error) {
	var zero Result[R]

	if track == nil {
		return zero, fmt.Errorf("supervisor: tracker_enabled is true but no TrackFunc was supplied")
	}

	background, err := loadBackground(s.cfg.VideoPath, width, height, matType)
	if err != nil {
		return zero, fmt.Errorf("supervisor: loading tracking background: %w", err)
	}
	defer background.Close()

	structElement := gocv.GetStructuringElement(gocv.MorphEllipse, image.Pt(s.cfg.StructElementSize, s.cfg.StructElementSize))
	defer structElement.Close()

	highlightCfg := highlight.Config{
		Background:       background,
		StructElement:    structElement,
		Threshold:        s.cfg.Highlight.Threshold,
		ThresholdLo:      s.cfg.Highlight.ThresholdLo,
		ThresholdHi:      s.cfg.Highlight.ThresholdHi,
		MinSizeThreshold: s.cfg.Highlight.MinSizeThreshold,
		MinSizeHyst:      s.cfg.Highlight.MinSizeHyst,
		WidthBorder:      s.cfg.Highlight.WidthBorder,
	}

	const upstreamBatchSize = 1

	gen := pipeline.NewBatchGenerator[videoframe.Fragment](upstreamBatchSize, s.cfg.TokenStorageLimit)
	gen.Start([]pipeline.GeneratorAlgo[videoframe.Fragment]{frameAlgo})

	intermediary := pipeline.NewIntermediary[videoframe.Fragment, []videoframe.Frame, struct{}](
		upstreamBatchSize,
		s.cfg.TokenStorageLimit,
		func(slots []videoframe.Fragment) []videoframe.Frame {
			composite := videoframe.Untile(slots, width, height, matType)
			frame := slots[0].Frame
			frame.Mat = composite
			return []videoframe.Frame{frame}
		},
		func() struct{} { return struct{}{} },
	)

	upstream, err := pipeline.NewTokenProcess[videoframe.Fragment, videoframe.Fragment, struct{}](
		s.cfg.MaxThreads, true, s.cfg.TokenStorageLimit, upstreamBatchSize, gen, intermediary,
	)
	if err != nil {
		return zero, fmt.Errorf("supervisor: constructing highlight stage: %w", err)
	}

	sink := pipeline.NewSingleResultConsumer[tracker.Table[R]]()
	downstream, err := pipeline.NewTokenProcess[[]videoframe.Frame, tracker.Table[R], tracker.Table[R]](
		1, true, s.cfg.TokenStorageLimit, 1, intermediary, sink,
	)
	if err != nil {
		return zero, fmt.Errorf("supervisor: constructing tracker stage: %w", err)
	}

	highlightFactory := func() pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment] {
		return highlight.New(highlightCfg)
	}
	trackerFactory := func() pipeline.ProcessorAlgo[[]videoframe.Frame, tracker.Table[R]] {
		return tracker.New(tracker.Config[R]{Track: track, Logger: s.logger})
	}

	var tracks tracker.Table[R]
	err = pipeline.Chain(
		func() error {
			_, err := upstream.Run([]pipeline.AlgoFactory[videoframe.Fragment, videoframe.Fragment]{highlightFactory})
			return err
		},
		func() error {
			result, err := downstream.Run([]pipeline.AlgoFactory[[]videoframe.Frame, tracker.Table[R]]{trackerFactory})
			tracks = result
			return err
		},
	)
	if err != nil {
		return zero, fmt.Errorf("supervisor: running tracking pipeline: %w", err)
	}

	s.logger.Info("supervisor: tracking pipeline complete", "objects_tracked", len(tracks))

	var out Result[R]
	out.Tracks = tracks
	if s.cfg.CollectTimings {
		out.GeneratorTiming = gen.TimingReport()
		out.ProcessTiming = downstream.TimingReport()
	}
	return out, nil
}

// loadBackground reads a single reference frame to use as
// HighlightObjectsAlgo's background: the first frame of the same video
// path, resized/typed to match the pipeline's configured output shape.
// Supervisors with a dedicated background image (e.g. produced by a prior
// background-extraction run) should construct highlight.Config directly
// instead of going through Run.
func loadBackground(videoPath string, width, height int, matType gocv.MatType) (gocv.Mat, error) {
	src, err := videoframe.OpenFileVideoSource(videoPath)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer src.Close()

	frame, ok := src.Read()
	if !ok {
		return gocv.Mat{}, fmt.Errorf("no frames available to seed background")
	}
	defer frame.Mat.Close()

	mat := frame.Mat
	if matType == gocv.MatTypeCV8UC1 && mat.Channels() > 1 {
		gray := gocv.NewMat()
		defer gray.Close()
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		mat = gray
	}

	if mat.Rows() == height && mat.Cols() == width && mat.Type() == matType {
		return mat.Clone(), nil
	}

	resized := gocv.NewMat()
	gocv.Resize(mat, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	return resized, nil
}
