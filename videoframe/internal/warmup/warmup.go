// Package warmup measures whether a live frame source has stabilized before
// RTSPVideoSource hands it to the pipeline: it samples inter-frame timing
// for a short probe window and fails fast if FPS or jitter never settle.
package warmup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Frame is the minimal shape Probe needs from a caller's own frame type.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
}

// Probe consumes frames from source for duration, converting each with
// toFrame, then reports FPS/jitter stability. T is the caller's native
// frame type (e.g. rtsp.Frame); toFrame keeps this package free of any
// dependency on it.
func Probe[T any](ctx context.Context, source <-chan T, duration time.Duration, toFrame func(T) Frame) (*Stats, error) {
	slog.Info("warmup: probing stream stability", "duration", duration)

	probeCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	frameTimes := make([]time.Time, 0, 128)
	start := time.Now()

	for {
		select {
		case <-probeCtx.Done():
			return finishProbe(frameTimes, time.Since(start))

		case raw, ok := <-source:
			if !ok {
				return nil, fmt.Errorf("warmup: source closed during probe")
			}
			frameTimes = append(frameTimes, toFrame(raw).Timestamp)
		}
	}
}

func finishProbe(frameTimes []time.Time, elapsed time.Duration) (*Stats, error) {
	if len(frameTimes) < 2 {
		return nil, fmt.Errorf("warmup: not enough frames received (got %d, need at least 2)", len(frameTimes))
	}

	stats := CalculateFPSStats(frameTimes, elapsed)
	slog.Info("warmup: probe complete",
		"frames", stats.FramesReceived, "fps_mean", stats.FPSMean,
		"fps_range", []float64{stats.FPSMin, stats.FPSMax},
		"jitter_mean", stats.JitterMean, "stable", stats.IsStable)

	if !stats.IsStable {
		return nil, fmt.Errorf("warmup: stream FPS unstable (mean=%.2f Hz, stddev=%.2f, jitter=%.3fs, threshold: FPS<15%%, jitter<20%%)",
			stats.FPSMean, stats.FPSStdDev, stats.JitterMean)
	}
	return stats, nil
}
