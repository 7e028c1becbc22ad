// Package rtsp builds and supervises a single-purpose GStreamer capture
// pipeline (rtspsrc -> rtph264depay -> avdec_h264 -> videoconvert ->
// videoscale -> videorate -> capsfilter -> appsink) for the videoframe
// package's live VideoSource. It intentionally covers only what
// RTSPVideoSource needs: one fixed software decode path, a bus monitor with
// reconnect-with-backoff, and error classification for logging. Hardware
// acceleration and mid-stream reconfiguration are out of scope here.
package rtsp

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// PipelineConfig parameterizes CreatePipeline.
type PipelineConfig struct {
	RTSPURL   string
	Width     int
	Height    int
	TargetFPS float64
}

// PipelineElements holds the elements CreatePipeline's caller needs a
// reference to after construction: the pipeline itself, its sink, and the
// source element pad-added callbacks attach to.
type PipelineElements struct {
	Pipeline *gst.Pipeline
	AppSink  *app.Sink
	RTSPSrc  *gst.Element
}

// CreatePipeline assembles the pipeline in the NULL state; the caller
// transitions it to gst.StatePlaying once callbacks are wired.
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create pipeline: %w", err)
	}

	rtspsrc, err := gst.NewElement("rtspsrc")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create rtspsrc: %w", err)
	}
	rtspsrc.SetProperty("location", cfg.RTSPURL)
	rtspsrc.SetProperty("protocols", 4) // TCP only
	rtspsrc.SetProperty("latency", 200)

	depay, err := gst.NewElement("rtph264depay")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create rtph264depay: %w", err)
	}

	decoder, err := gst.NewElement("avdec_h264")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create avdec_h264: %w", err)
	}
	decoder.SetProperty("max-threads", 0)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create videoconvert: %w", err)
	}

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create videoscale: %w", err)
	}

	rate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create videorate: %w", err)
	}
	rate.SetProperty("drop-only", true)
	rate.SetProperty("skip-to-first", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("rtsp: create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(buildFramerateCaps(cfg.Width, cfg.Height, cfg.TargetFPS)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("rtsp: create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	pipeline.AddMany(rtspsrc, depay, decoder, converter, scaler, rate, capsfilter, appsink.Element)

	// rtspsrc's src pad only appears once the server answers, so the
	// remaining static chain is linked now and rtspsrc joins it later via
	// the "pad-added" signal (see OnPadAdded).
	if err := gst.ElementLinkMany(depay, decoder, converter, scaler, rate, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("rtsp: link pipeline elements: %w", err)
	}

	return &PipelineElements{Pipeline: pipeline, AppSink: appsink, RTSPSrc: rtspsrc}, nil
}

// DestroyPipeline transitions the pipeline to NULL, releasing its
// resources. Safe to call on a nil or already-destroyed pipeline.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("rtsp: stop pipeline: %w", err)
	}
	return nil
}

// OnPadAdded links rtspsrc's dynamically-created source pad to depay's sink
// pad once the RTSP session negotiates a stream.
func OnPadAdded(srcPad *gst.Pad, depay *gst.Element) error {
	sinkPad := depay.GetStaticPad("sink")
	if sinkPad == nil {
		return fmt.Errorf("rtsp: rtph264depay has no sink pad")
	}
	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		return fmt.Errorf("rtsp: link %s to %s: %v", srcPad.GetName(), sinkPad.GetName(), ret)
	}
	return nil
}

// buildFramerateCaps builds a caps string pinning format, resolution and
// framerate. Sub-1 FPS targets are expressed as a 1/N fraction since
// GStreamer framerate caps are always integer fractions.
func buildFramerateCaps(width, height int, fps float64) string {
	numerator, denominator := 1, 1
	if fps < 1.0 && fps > 0 {
		denominator = int(1.0 / fps)
	} else if fps >= 1.0 {
		numerator = int(fps)
	}
	return fmt.Sprintf("video/x-raw,format=RGB,width=%d,height=%d,framerate=%d/%d", width, height, numerator, denominator)
}
