package config

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	path := writeConfigFile(t, `
video_path: /tmp/input.mp4
token_storage_limit: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Algorithm != "histogram" {
		t.Fatalf("Algorithm = %q, want histogram default", cfg.Algorithm)
	}
	if cfg.MaxThreads <= 0 {
		t.Fatalf("MaxThreads = %d, want > 0 default", cfg.MaxThreads)
	}
}

func TestLoadRejectsMissingVideoPath(t *testing.T) {
	path := writeConfigFile(t, `
token_storage_limit: 4
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: err = nil, want error for missing video_path")
	}
}

func TestLoadRejectsUnsupportedAlgorithm(t *testing.T) {
	path := writeConfigFile(t, `
video_path: /tmp/input.mp4
algorithm: trifame
token_storage_limit: 4
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: err = nil, want error for unsupported algorithm")
	}
}

func TestLoadRequiresRTSPURLWhenLive(t *testing.T) {
	path := writeConfigFile(t, `
live: true
token_storage_limit: 4
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: err = nil, want error for missing rtsp_url")
	}
}

func TestLoadRequiresStreamDimensionsWhenLive(t *testing.T) {
	path := writeConfigFile(t, `
live: true
rtsp_url: rtsp://camera.local/stream
token_storage_limit: 4
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: err = nil, want error for missing stream dimensions")
	}
}

func TestLoadRequiresStructElementSizeWhenTrackerEnabled(t *testing.T) {
	path := writeConfigFile(t, `
video_path: /tmp/input.mp4
token_storage_limit: 4
tracker_enabled: true
highlight:
  threshold_lo: 10
  threshold_hi: 40
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load: err = nil, want error for missing struct_element_size")
	}
}

func TestValidateRejectsBadHysteresisBounds(t *testing.T) {
	cfg := Config{
		VideoPath:         "/tmp/input.mp4",
		Algorithm:         "histogram",
		MaxThreads:        1,
		TokenStorageLimit: 4,
		TrackerEnabled:    true,
		StructElementSize: 5,
		Highlight:         HighlightConfig{ThresholdLo: 50, ThresholdHi: 50},
	}
	if err := Validate(&cfg); err == nil {
		t.Fatalf("Validate: err = nil, want error for threshold_lo >= threshold_hi")
	}
}

func TestCropConfigRectangleExpandsZeroDimensionsToEdge(t *testing.T) {
	c := CropConfig{X: 10, Y: 20}
	got := c.Rectangle(100, 80)
	want := image.Rect(10, 20, 100, 80)
	if got != want {
		t.Fatalf("Rectangle() = %v, want %v", got, want)
	}
}

func TestCropConfigEmpty(t *testing.T) {
	if !(CropConfig{}).Empty() {
		t.Fatalf("zero CropConfig should be Empty")
	}
	if (CropConfig{Width: 10}).Empty() {
		t.Fatalf("non-zero CropConfig should not be Empty")
	}
}
