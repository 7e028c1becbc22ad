package config

import (
	"fmt"
	"image"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration surface for cmd/cvvidproc.
type Config struct {
	// VideoPath is the source video file path. When Live is true frames come
	// from RTSPURL instead, but the tracking pipeline still reads its
	// background frame from VideoPath.
	VideoPath string `yaml:"video_path"`
	// RTSPURL is the stream URL read when Live is true.
	RTSPURL string `yaml:"rtsp_url"`
	// Live selects the go-gst-backed RTSPVideoSource over a FileVideoSource.
	Live bool `yaml:"live"`
	// Stream configures the RTSPVideoSource. Required when Live is true.
	Stream StreamConfig `yaml:"stream"`

	// Algorithm names the background-extraction algorithm; "histogram" is
	// the only one codified.
	Algorithm string `yaml:"algorithm"`
	// MaxThreads upper-bounds goroutines dedicated to processing units.
	// Defaults to runtime.GOMAXPROCS(0) when <= 0.
	MaxThreads int `yaml:"max_threads"`
	// FrameLimit caps frames processed; <= 0 means all of them.
	FrameLimit int `yaml:"frame_limit"`

	// Grayscale converts frames to one channel before processing.
	Grayscale bool `yaml:"grayscale"`
	// SourceIsGrayscale is a fast path: the source already decodes to one
	// channel.
	SourceIsGrayscale bool `yaml:"source_is_grayscale"`
	// Crop, if non-zero, is applied to every decoded frame.
	Crop CropConfig `yaml:"crop"`

	// TokenStorageLimit is the per-queue capacity.
	TokenStorageLimit int `yaml:"token_storage_limit"`
	// CollectTimings enables interval timing reports.
	CollectTimings bool `yaml:"collect_timings"`

	// TrackerEnabled builds the tracking pipeline (Highlight → Intermediary
	// → TrackerBridge) instead of the background-extraction pipeline.
	TrackerEnabled bool `yaml:"tracker_enabled"`
	// StructElementSize is the side length, in pixels, of the square
	// morphological structuring element HighlightObjectsAlgo uses. Required
	// when TrackerEnabled is set.
	StructElementSize int `yaml:"struct_element_size"`
	// Highlight carries the remaining HighlightObjectsAlgo thresholds.
	// Required when TrackerEnabled is set.
	Highlight HighlightConfig `yaml:"highlight"`
}

// StreamConfig configures a live RTSPVideoSource: the capture dimensions
// (GStreamer decodes into a fixed-size buffer, unlike a file capture's
// self-probed resolution) and the FPS-stability warm-up probe.
type StreamConfig struct {
	Width           int     `yaml:"width"`
	Height          int     `yaml:"height"`
	TargetFPS       float64 `yaml:"target_fps"`
	WarmupDurationS int     `yaml:"warmup_duration_s"`
}

// CropConfig is a pixel-integer crop rectangle. Width and Height of 0 mean
// "to the frame edge".
type CropConfig struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Empty reports whether no crop was configured at all.
func (c CropConfig) Empty() bool {
	return c.X == 0 && c.Y == 0 && c.Width == 0 && c.Height == 0
}

// Rectangle resolves the crop against a source frame of srcWidth x
// srcHeight, expanding a zero Width/Height to the frame edge.
func (c CropConfig) Rectangle(srcWidth, srcHeight int) image.Rectangle {
	if c.Empty() {
		return image.Rectangle{}
	}
	w := c.Width
	if w == 0 {
		w = srcWidth - c.X
	}
	h := c.Height
	if h == 0 {
		h = srcHeight - c.Y
	}
	return image.Rect(c.X, c.Y, c.X+w, c.Y+h)
}

// HighlightConfig mirrors highlight.Config's scalar fields, loaded from
// YAML rather than constructed in code.
type HighlightConfig struct {
	Threshold        int     `yaml:"threshold"`
	ThresholdLo      int     `yaml:"threshold_lo"`
	ThresholdHi      int     `yaml:"threshold_hi"`
	MinSizeThreshold float64 `yaml:"min_size_threshold"`
	MinSizeHyst      float64 `yaml:"min_size_hyst"`
	WidthBorder      int     `yaml:"width_border"`
}

// Load reads path, unmarshals it as YAML, applies defaults, validates the
// result, and returns the validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MaxThreads <= 0 {
		cfg.MaxThreads = runtime.GOMAXPROCS(0)
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = "histogram"
	}
}
