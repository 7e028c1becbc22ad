package supervisor

import (
	"testing"

	"github.com/UkoeHB/CvVidProc/bgmedian"
	"github.com/UkoeHB/CvVidProc/config"
)

func TestExpectedFrameCountUsesFrameLimitWhenSet(t *testing.T) {
	cfg := &config.Config{FrameLimit: 42}
	if got := expectedFrameCount(cfg); got != 42 {
		t.Fatalf("expectedFrameCount = %d, want 42", got)
	}
}

func TestExpectedFrameCountFallsBackWhenUnbounded(t *testing.T) {
	cfg := &config.Config{}
	if got := expectedFrameCount(cfg); got <= 0 {
		t.Fatalf("expectedFrameCount = %d, want a large positive fallback", got)
	}
}

func TestHistogramAlgoFactorySelectsMatchingCounterWidth(t *testing.T) {
	for _, width := range []bgmedian.CounterWidth{bgmedian.Counter8, bgmedian.Counter16, bgmedian.Counter32} {
		factory := histogramAlgoFactory(width)
		algo := factory()
		if algo == nil {
			t.Fatalf("histogramAlgoFactory(%v) produced a nil algo", width)
		}
	}
}
