package config

import "fmt"

// Validate checks required fields and numeric ranges, returning an error
// naming the first offending field.
func Validate(cfg *Config) error {
	if cfg.Live {
		if cfg.RTSPURL == "" {
			return fmt.Errorf("rtsp_url is required when live is true")
		}
		if cfg.Stream.Width <= 0 || cfg.Stream.Height <= 0 {
			return fmt.Errorf("stream.width and stream.height must be > 0 when live is true")
		}
	} else if cfg.VideoPath == "" {
		return fmt.Errorf("video_path is required when live is false")
	}

	if cfg.Algorithm != "histogram" {
		return fmt.Errorf("algorithm %q is not supported (only \"histogram\" is codified)", cfg.Algorithm)
	}

	if cfg.MaxThreads <= 0 {
		return fmt.Errorf("max_threads must be > 0")
	}

	if cfg.TokenStorageLimit <= 0 {
		return fmt.Errorf("token_storage_limit must be > 0")
	}

	if cfg.Crop.Width < 0 || cfg.Crop.Height < 0 {
		return fmt.Errorf("crop.width and crop.height must be >= 0")
	}

	if cfg.TrackerEnabled {
		if cfg.StructElementSize <= 0 {
			return fmt.Errorf("struct_element_size must be > 0 when tracker_enabled is true")
		}
		if cfg.Highlight.ThresholdLo >= cfg.Highlight.ThresholdHi {
			return fmt.Errorf("highlight.threshold_lo must be < highlight.threshold_hi")
		}
		if cfg.Highlight.MinSizeThreshold < 0 || cfg.Highlight.MinSizeHyst < 0 {
			return fmt.Errorf("highlight.min_size_threshold and highlight.min_size_hyst must be >= 0")
		}
	}

	return nil
}
