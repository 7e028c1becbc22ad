package warmup

import (
	"math"
	"time"
)

const (
	// fpsStabilityThreshold: a stream is stable only if its instantaneous
	// FPS standard deviation stays under 15% of the mean.
	fpsStabilityThreshold = 0.15
	// jitterStabilityThreshold: mean inter-frame jitter must stay under 20%
	// of the expected interval implied by the mean FPS.
	jitterStabilityThreshold = 0.20
)

// Stats summarizes the FPS and jitter behaviour observed during a probe
// window.
type Stats struct {
	FramesReceived int
	Duration       time.Duration
	FPSMean        float64
	FPSStdDev      float64
	FPSMin         float64
	FPSMax         float64
	JitterMean     float64
	JitterStdDev   float64
	JitterMax      float64
	IsStable       bool
}

// CalculateFPSStats derives mean/stddev FPS and jitter from a sequence of
// frame arrival timestamps, and flags the stream stable only when both stay
// under their respective thresholds.
func CalculateFPSStats(frameTimes []time.Time, totalDuration time.Duration) *Stats {
	n := len(frameTimes)
	if n == 0 {
		return &Stats{Duration: totalDuration}
	}

	fpsMean := float64(n) / totalDuration.Seconds()

	instantaneousFPS := make([]float64, 0, n-1)
	jitters := make([]float64, 0, n-1)
	expectedInterval := 1.0 / fpsMean
	for i := 1; i < n; i++ {
		interval := frameTimes[i].Sub(frameTimes[i-1]).Seconds()
		if interval > 0 {
			instantaneousFPS = append(instantaneousFPS, 1.0/interval)
		}
		jitters = append(jitters, math.Abs(interval-expectedInterval))
	}

	if len(instantaneousFPS) == 0 {
		return &Stats{FramesReceived: n, Duration: totalDuration, FPSMean: fpsMean}
	}

	fpsMin, fpsMax := instantaneousFPS[0], instantaneousFPS[0]
	for _, fps := range instantaneousFPS {
		fpsMin = math.Min(fpsMin, fps)
		fpsMax = math.Max(fpsMax, fps)
	}
	fpsStdDev := stdDev(instantaneousFPS, fpsMean)

	jitterMean, jitterMax := mean(jitters), 0.0
	for _, j := range jitters {
		jitterMax = math.Max(jitterMax, j)
	}
	jitterStdDev := stdDev(jitters, jitterMean)

	isStable := fpsStdDev < fpsMean*fpsStabilityThreshold &&
		jitterMean < expectedInterval*jitterStabilityThreshold

	return &Stats{
		FramesReceived: n,
		Duration:       totalDuration,
		FPSMean:        fpsMean,
		FPSStdDev:      fpsStdDev,
		FPSMin:         fpsMin,
		FPSMax:         fpsMax,
		JitterMean:     jitterMean,
		JitterStdDev:   jitterStdDev,
		JitterMax:      jitterMax,
		IsStable:       isStable,
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64, mean float64) float64 {
	var sumSquares float64
	for _, x := range xs {
		diff := x - mean
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(xs)))
}
