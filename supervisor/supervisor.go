package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/bgmedian"
	"github.com/UkoeHB/CvVidProc/config"
	"github.com/UkoeHB/CvVidProc/pipeline"
	"github.com/UkoeHB/CvVidProc/timing"
	"github.com/UkoeHB/CvVidProc/tracker"
	"github.com/UkoeHB/CvVidProc/videoframe"
)

// Result is what Run produces: the background pipeline's median image, the
// tracking pipeline's final archive table, or both left at their zero
// value depending on which pipeline cfg.TrackerEnabled selected.
type Result[R any] struct {
	Background gocv.Mat
	Tracks     tracker.Table[R]

	GeneratorTiming timing.Report
	ProcessTiming   timing.Report
}

// Supervisor owns one end-to-end run of either pipeline.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs a Supervisor from a validated config.
func New(cfg *config.Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{cfg: cfg, logger: logger}
}

// Run opens the configured VideoSource, builds the selected pipeline, runs
// it to completion, and returns its result. Run is generic over R, the
// tracker's per-object record type; track is ignored when
// cfg.TrackerEnabled is false.
//
// ctx cancellation closes the source early: this is the framework's sole
// cancellation path. A closed source makes the next Read fail, the
// generator observes exhaustion, and TokenProcess.Run returns normally
// rather than being forcibly aborted mid-batch.
func Run[R any](ctx context.Context, s *Supervisor, track tracker.TrackFunc[R]) (Result[R], error) {
	var zero Result[R]

	src, err := openSource(s.cfg)
	if err != nil {
		return zero, fmt.Errorf("supervisor: opening video source: %w", err)
	}

	closed := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.logger.Info("supervisor: shutdown signal received, closing video source")
			if err := src.Close(); err != nil {
				s.logger.Error("supervisor: failed to close video source", "err", err)
			}
		case <-closed:
		}
	}()
	defer close(closed)

	srcWidth, srcHeight := src.Resolution()
	width, height := srcWidth, srcHeight
	if !s.cfg.Crop.Empty() {
		rect := s.cfg.Crop.Rectangle(srcWidth, srcHeight)
		width, height = rect.Dx(), rect.Dy()
	}

	batchCfg := videoframe.FrameBatchConfig{
		LastFrame:          s.cfg.FrameLimit,
		FramesInBatch:      1,
		Cols:               1,
		Rows:               1,
		CropRect:           s.cfg.Crop.Rectangle(srcWidth, srcHeight),
		ConvertToGrayscale: s.cfg.Grayscale,
		SourceIsGrayscale:  s.cfg.SourceIsGrayscale,
		Live:               s.cfg.Live,
	}

	frameAlgo, err := videoframe.NewFrameBatchAlgo(src, batchCfg)
	if err != nil {
		return zero, fmt.Errorf("supervisor: building frame generator: %w", err)
	}

	matType := gocv.MatTypeCV8UC3
	if s.cfg.Grayscale || s.cfg.SourceIsGrayscale {
		matType = gocv.MatTypeCV8UC1
	}

	if s.cfg.TrackerEnabled {
		return runTrackingPipeline(s, frameAlgo, width, height, matType, track)
	}
	return runBackgroundPipeline[R](s, frameAlgo, width, height, matType)
}

func openSource(cfg *config.Config) (videoframe.VideoSource, error) {
	if cfg.Live {
		return videoframe.OpenRTSPVideoSource(videoframe.RTSPSourceConfig{
			URL:            cfg.RTSPURL,
			Width:          cfg.Stream.Width,
			Height:         cfg.Stream.Height,
			TargetFPS:      cfg.Stream.TargetFPS,
			WarmupDuration: time.Duration(cfg.Stream.WarmupDurationS) * time.Second,
		})
	}
	return videoframe.OpenFileVideoSource(cfg.VideoPath)
}

// runBackgroundPipeline runs FrameBatchAlgo -> HistogramMedianAlgo ->
// FragmentAssemblerConsumer to completion, batchSize 1 (no tiling
// configured by Run), and reassembles the single emitted median fragment
// into a full-size image.
func runBackgroundPipeline[R any](s *Supervisor, frameAlgo *videoframe.FrameBatchAlgo, width, height int, matType gocv.MatType) (Result[R], error) {
	var zero Result[R]
	const batchSize = 1

	gen := pipeline.NewBatchGenerator[videoframe.Fragment](batchSize, s.cfg.TokenStorageLimit)
	gen.Start([]pipeline.GeneratorAlgo[videoframe.Fragment]{frameAlgo})

	consumer := videoframe.NewFragmentAssemblerConsumer(batchSize, width, height, matType)

	tp, err := pipeline.NewTokenProcess[videoframe.Fragment, videoframe.Fragment, []gocv.Mat](
		s.cfg.MaxThreads, true, s.cfg.TokenStorageLimit, batchSize, gen, consumer,
	)
	if err != nil {
		return zero, fmt.Errorf("supervisor: constructing background pipeline: %w", err)
	}

	counterWidth := bgmedian.SelectCounterWidth(expectedFrameCount(s.cfg))

	factory := histogramAlgoFactory(counterWidth)
	results, err := tp.Run([]pipeline.AlgoFactory[videoframe.Fragment, videoframe.Fragment]{factory})
	if err != nil {
		return zero, fmt.Errorf("supervisor: running background pipeline: %w", err)
	}

	s.logger.Info("supervisor: background pipeline complete",
		"counter_width", counterWidth.String(),
		"images_produced", len(results),
	)

	var out Result[R]
	if len(results) > 0 {
		out.Background = results[0]
	}
	if s.cfg.CollectTimings {
		out.GeneratorTiming = gen.TimingReport()
		out.ProcessTiming = tp.TimingReport()
	}
	return out, nil
}

// histogramAlgoFactory returns a pipeline.AlgoFactory instantiating
// bgmedian.Algo at the selected counter width, type-erased behind
// ProcessorAlgo[Fragment,Fragment].
func histogramAlgoFactory(width bgmedian.CounterWidth) pipeline.AlgoFactory[videoframe.Fragment, videoframe.Fragment] {
	switch width {
	case bgmedian.Counter8:
		return func() pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment] { return bgmedian.New[uint8]() }
	case bgmedian.Counter16:
		return func() pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment] { return bgmedian.New[uint16]() }
	default:
		return func() pipeline.ProcessorAlgo[videoframe.Fragment, videoframe.Fragment] { return bgmedian.New[uint32]() }
	}
}

// expectedFrameCount estimates the frame count used to pick a counter
// width for HistogramMedianAlgo: the configured FrameLimit when set, or a
// count large enough that no narrower counter width is assumed safe for an
// unbounded/live run.
func expectedFrameCount(cfg *config.Config) int {
	if cfg.FrameLimit > 0 {
		return cfg.FrameLimit
	}
	return math.MaxInt32
}
