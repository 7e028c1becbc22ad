// Package timing implements IntervalTimer, a lock-free duration/count
// accumulator shared by generators, consumers, and processing units to
// report throughput without touching control flow.
package timing

import (
	"sync/atomic"
	"time"
)

// IntervalTimer accumulates (duration, count) pairs across concurrent
// writers. All operations are atomic; there is no mutex. Each field is
// updated with its own atomic add and read with its own load, so a snapshot
// taken during a concurrent AddInterval or Reset may pair one field's new
// value with the other's old one; this is acceptable because timing counters
// never gate correctness.
type IntervalTimer struct {
	totalNanos atomic.Int64
	count      atomic.Int64
}

// Report is a point-in-time snapshot of an IntervalTimer.
type Report struct {
	TotalDuration time.Duration
	IntervalCount int64
}

// AddInterval records the elapsed time since start and increments the
// interval count. Safe for concurrent use.
func (t *IntervalTimer) AddInterval(start time.Time) {
	elapsed := time.Since(start)
	t.totalNanos.Add(int64(elapsed))
	t.count.Add(1)
}

// Reset zeroes both accumulators atomically (not as a single atomic
// transaction across both fields - a concurrent reader may observe one
// field reset and the other not, which is acceptable because timing never
// gates control flow).
func (t *IntervalTimer) Reset() {
	t.totalNanos.Store(0)
	t.count.Store(0)
}

// Report returns a snapshot of the accumulated totals.
func (t *IntervalTimer) Report() Report {
	return Report{
		TotalDuration: time.Duration(t.totalNanos.Load()),
		IntervalCount: t.count.Load(),
	}
}

// Mean returns the average interval duration, or zero if no intervals have
// been recorded yet.
func (r Report) Mean() time.Duration {
	if r.IntervalCount == 0 {
		return 0
	}
	return r.TotalDuration / time.Duration(r.IntervalCount)
}
