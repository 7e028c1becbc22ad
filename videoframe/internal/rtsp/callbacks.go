package rtsp

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is the raw decoded buffer handed off from the appsink callback to
// RTSPVideoSource, ahead of conversion into a gocv.Mat.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Data      []byte
	TraceID   string
}

// SinkContext holds the state OnNewSample needs across calls: the channel
// frames are delivered on and the atomic counters RTSPVideoSource reports.
type SinkContext struct {
	Frames    chan<- Frame
	Delivered *uint64
	Dropped   *uint64
}

// OnNewSample pulls the newest sample off the appsink, copies its buffer
// (GStreamer reclaims the original once the callback returns), and delivers
// it on ctx.Frames without blocking. A full channel drops the frame rather
// than stalling the GStreamer streaming thread.
func OnNewSample(sink *app.Sink, ctx *SinkContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		slog.Warn("rtsp: pull sample failed, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("rtsp: sample had no buffer, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()
	if len(mapInfo.Bytes()) == 0 {
		slog.Warn("rtsp: empty buffer, skipping frame")
		return gst.FlowOK
	}

	data := make([]byte, len(mapInfo.Bytes()))
	copy(data, mapInfo.Bytes())

	frame := Frame{
		Seq:       atomic.AddUint64(ctx.Delivered, 1),
		Timestamp: time.Now(),
		Data:      data,
		TraceID:   uuid.New().String(),
	}

	select {
	case ctx.Frames <- frame:
	default:
		atomic.AddUint64(ctx.Dropped, 1)
		slog.Debug("rtsp: frame dropped, channel full", "seq", frame.Seq, "trace_id", frame.TraceID)
	}

	return gst.FlowOK
}
