package videoframe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"

	"github.com/UkoeHB/CvVidProc/videoframe/internal/rtsp"
	"github.com/UkoeHB/CvVidProc/videoframe/internal/warmup"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// RTSPVideoSource decodes a live RTSP stream into Frame values via a
// GStreamer pipeline (rtspsrc -> rtph264depay -> decoder -> videoconvert ->
// appsink). Construction blocks for a short stability probe so a caller
// never starts processing against a pipeline that hasn't settled.
type RTSPVideoSource struct {
	url      string
	elements *rtsp.PipelineElements

	frames chan rtsp.Frame
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	w, h    int
	index   int
	started time.Time

	delivered     uint64
	dropped       uint64
	reconnects    uint32
	errorCounters rtsp.ErrorCounters

	closed atomic.Bool
}

// RTSPSourceConfig configures an RTSPVideoSource.
type RTSPSourceConfig struct {
	URL           string
	Width, Height int
	TargetFPS     float64
	// WarmupDuration is how long to probe the stream for FPS stability
	// before OpenRTSPVideoSource returns. Zero disables the probe.
	WarmupDuration time.Duration
}

// OpenRTSPVideoSource builds and starts a GStreamer capture pipeline for
// cfg.URL, then (if cfg.WarmupDuration > 0) blocks measuring FPS stability
// before returning, failing fast if the stream never stabilizes.
func OpenRTSPVideoSource(cfg RTSPSourceConfig) (*RTSPVideoSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("videoframe: RTSP URL is required")
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("videoframe: invalid resolution %dx%d", cfg.Width, cfg.Height)
	}

	elements, err := rtsp.CreatePipeline(rtsp.PipelineConfig{
		RTSPURL:   cfg.URL,
		Width:     cfg.Width,
		Height:    cfg.Height,
		TargetFPS: cfg.TargetFPS,
	})
	if err != nil {
		return nil, fmt.Errorf("videoframe: create pipeline: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &RTSPVideoSource{
		url:      cfg.URL,
		elements: elements,
		frames:   make(chan rtsp.Frame, 10),
		ctx:      ctx,
		cancel:   cancel,
		w:        cfg.Width,
		h:        cfg.Height,
		started:  time.Now(),
		errorCounters: rtsp.ErrorCounters{
			Network: new(uint64),
			Codec:   new(uint64),
			Auth:    new(uint64),
			Unknown: new(uint64),
		},
	}

	sinkCtx := &rtsp.SinkContext{Frames: s.frames, Delivered: &s.delivered, Dropped: &s.dropped}
	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return rtsp.OnNewSample(sink, sinkCtx)
		},
	})

	var depayElement *gst.Element
	pipelineElements, _ := elements.Pipeline.GetElements()
	for _, elem := range pipelineElements {
		if elem.GetFactory() != nil && elem.GetFactory().GetName() == "rtph264depay" {
			depayElement = elem
			break
		}
	}
	if depayElement != nil {
		elements.RTSPSrc.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
			if err := rtsp.OnPadAdded(srcPad, depayElement); err != nil {
				slog.Error("videoframe: RTSP pad link failed", "error", err)
			}
		})
	}

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return nil, fmt.Errorf("videoframe: start pipeline: %w", err)
	}

	s.wg.Add(1)
	go s.monitorBus()

	if cfg.WarmupDuration > 0 {
		if _, err := warmup.Probe(ctx, s.frames, cfg.WarmupDuration, func(f rtsp.Frame) warmup.Frame {
			return warmup.Frame{Seq: f.Seq, Timestamp: f.Timestamp}
		}); err != nil {
			s.Close()
			return nil, fmt.Errorf("videoframe: RTSP stream failed stability probe: %w", err)
		}
	}

	return s, nil
}

// monitorBus watches the pipeline bus with automatic reconnection on
// transient errors (network blips, codec hiccups), backing off exponentially
// between attempts and giving up after the configured retry budget.
func (s *RTSPVideoSource) monitorBus() {
	defer s.wg.Done()

	metrics := &rtsp.MonitorMetrics{
		RTSPURL:    s.url,
		Resolution: fmt.Sprintf("%dx%d", s.w, s.h),
		FrameCount: &s.delivered,
		StartedAt:  s.started,
	}

	restart := false
	connectFn := func(ctx context.Context) error {
		if restart {
			if err := s.elements.Pipeline.SetState(gst.StateNull); err != nil {
				return err
			}
			if err := s.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
				return err
			}
		}
		restart = true
		return rtsp.MonitorPipelineBus(ctx, s.elements.Pipeline, &s.errorCounters, metrics)
	}

	if err := rtsp.RunWithReconnect(s.ctx, connectFn, rtsp.DefaultReconnectConfig(), &s.reconnects); err != nil {
		slog.Error("videoframe: RTSP pipeline stopped after reconnection failure",
			"url", s.url, "error", err, "uptime", time.Since(s.started))
		s.cancel()
	}
}

// Read blocks until the next frame arrives, decoding the raw RGB buffer into
// a gocv.Mat. It returns false once the source is closed or the pipeline has
// given up reconnecting.
func (s *RTSPVideoSource) Read() (Frame, bool) {
	var raw rtsp.Frame
	select {
	case r, ok := <-s.frames:
		if !ok {
			return Frame{}, false
		}
		raw = r
	case <-s.ctx.Done():
		return Frame{}, false
	}

	mat, err := gocv.NewMatFromBytes(s.h, s.w, gocv.MatTypeCV8UC3, raw.Data)
	if err != nil {
		slog.Warn("videoframe: failed to decode RTSP buffer into Mat", "error", err)
		return Frame{}, false
	}

	f := Frame{
		Seq:        raw.Seq,
		Timestamp:  raw.Timestamp,
		Mat:        mat,
		FrameIndex: s.index,
	}
	s.index++
	return f, true
}

// Seek always fails: a live source has no notion of an absolute frame index.
func (s *RTSPVideoSource) Seek(int) error {
	return fmt.Errorf("videoframe: Seek is not supported on a live RTSP source")
}

// Close stops the pipeline and releases GStreamer resources. Idempotent.
func (s *RTSPVideoSource) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	s.wg.Wait()
	return rtsp.DestroyPipeline(s.elements)
}

// Resolution returns the configured capture dimensions.
func (s *RTSPVideoSource) Resolution() (width, height int) {
	return s.w, s.h
}
