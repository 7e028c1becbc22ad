package rtsp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies a GStreamer pipeline error for logging.
type ErrorCategory int

const (
	ErrCategoryUnknown ErrorCategory = iota
	ErrCategoryNetwork
	ErrCategoryCodec
	ErrCategoryAuth
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNetwork:
		return "network"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// classificationKeywords maps each category to the substrings its errors
// tend to carry, checked most-specific first: an auth failure ("403 forbidden
// during codec negotiation") should classify as auth, not codec.
var classificationKeywords = []struct {
	category ErrorCategory
	keywords []string
}{
	{ErrCategoryAuth, []string{"unauthorized", "401", "403", "forbidden", "authentication", "credentials"}},
	{ErrCategoryCodec, []string{"codec", "decode", "negotiation", "caps", "h264", "not negotiated", "no decoder", "missing plugin"}},
	{ErrCategoryNetwork, []string{"connection", "timeout", "unreachable", "network", "dns", "resolve", "socket", "rtsp", "could not connect"}},
}

// ClassifyGStreamerError categorizes a pipeline error for structured
// logging; go-gst's GError does not expose the underlying GStreamer error
// domain, so classification relies on message substrings.
func ClassifyGStreamerError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	combined := strings.ToLower(gerr.Error() + " " + gerr.DebugString())
	for _, group := range classificationKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(combined, kw) {
				return group.category
			}
		}
	}
	return ErrCategoryUnknown
}

// ErrorCounters tallies bus errors by category for the caller's metrics.
type ErrorCounters struct {
	Network, Codec, Auth, Unknown *uint64
}

func (c *ErrorCounters) record(category ErrorCategory) {
	switch category {
	case ErrCategoryNetwork:
		atomic.AddUint64(c.Network, 1)
	case ErrCategoryCodec:
		atomic.AddUint64(c.Codec, 1)
	case ErrCategoryAuth:
		atomic.AddUint64(c.Auth, 1)
	default:
		atomic.AddUint64(c.Unknown, 1)
	}
}

// MonitorMetrics carries the fields MonitorPipelineBus logs alongside every
// bus event.
type MonitorMetrics struct {
	RTSPURL    string
	Resolution string
	FrameCount *uint64
	StartedAt  time.Time
}

// MonitorPipelineBus polls pipeline's bus until ctx is cancelled (returning
// nil) or the pipeline reports EOS or an error (returning non-nil, which
// signals RunWithReconnect to retry).
func MonitorPipelineBus(ctx context.Context, pipeline *gst.Pipeline, counters *ErrorCounters, metrics *MonitorMetrics) error {
	if pipeline == nil {
		return fmt.Errorf("rtsp: pipeline not initialized")
	}
	bus := pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			slog.Info("rtsp: end of stream",
				"url", metrics.RTSPURL, "uptime", time.Since(metrics.StartedAt))
			return fmt.Errorf("rtsp: end of stream")

		case gst.MessageError:
			gerr := msg.ParseError()
			category := ClassifyGStreamerError(gerr)
			counters.record(category)
			slog.Error("rtsp: pipeline error",
				"error", gerr.Error(), "category", category.String(),
				"url", metrics.RTSPURL, "resolution", metrics.Resolution,
				"uptime", time.Since(metrics.StartedAt),
				"frames", atomic.LoadUint64(metrics.FrameCount))
			return fmt.Errorf("rtsp: pipeline error [%s]: %s", category, gerr.Error())
		}
	}
}

// ReconnectConfig bounds RunWithReconnect's exponential backoff.
type ReconnectConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// DefaultReconnectConfig retries up to 5 times, starting with a 1s delay and
// doubling it each time (capped at 30s, so the longest wait is 16s).
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{MaxRetries: 5, RetryDelay: time.Second, MaxRetryDelay: 30 * time.Second}
}

// ConnectFunc attempts one connection/monitor cycle, blocking until it
// fails or ctx is cancelled.
type ConnectFunc func(ctx context.Context) error

// RunWithReconnect calls connectFn repeatedly, backing off exponentially
// between failures, until connectFn succeeds (returns nil), ctx is
// cancelled, or cfg.MaxRetries is exceeded.
func RunWithReconnect(ctx context.Context, connectFn ConnectFunc, cfg ReconnectConfig, reconnects *uint32) error {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := connectFn(ctx); err == nil {
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		} else {
			slog.Error("rtsp: connection attempt failed", "error", err)
		}

		attempt++
		atomic.AddUint32(reconnects, 1)
		if attempt > cfg.MaxRetries {
			return fmt.Errorf("rtsp: max retries exceeded (%d attempts)", cfg.MaxRetries)
		}

		delay := cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
		if delay > cfg.MaxRetryDelay {
			delay = cfg.MaxRetryDelay
		}
		slog.Warn("rtsp: retrying connection", "attempt", attempt, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
