package tracker

import (
	"log/slog"
	"sync"

	"github.com/UkoeHB/CvVidProc/videoframe"
)

// foreignRuntimeLock stands in for a foreign interpreter's global lock: it
// is acquired for the duration of every call into a configured TrackFunc
// and while NotifyNoMoreTokens hands the tables over. No other part of the
// framework takes it.
var foreignRuntimeLock sync.Mutex

// Table maps an object's integer ID to its tracker-defined record. The
// framework never inspects R; it only moves Tables between live and
// archive on the caller's behalf.
type Table[R any] map[int]R

// TrackFunc is the externally-supplied per-frame tracking callback. It
// mutates live and archive in place (both are reference types) and returns
// the next unused object ID, so the bridge can thread ID allocation across
// calls without understanding the tracker's internals.
type TrackFunc[R any] func(frame videoframe.Frame, frameIndex int, live, archive Table[R], nextID int) (newNextID int, err error)

// Config parameterizes TrackerBridgeAlgo.
type Config[R any] struct {
	// Track is the foreign tracking callback. Required.
	Track TrackFunc[R]
	// Logger receives a warning for every frame the callback errors on.
	// Defaults to slog.Default() when nil.
	Logger *slog.Logger
}

// Algo is a pipeline.ProcessorAlgo[[]videoframe.Frame, Table[R]]
// implementing TrackerBridgeAlgo: it owns the live/archive object tables,
// feeds every frame of every inserted token to the foreign callback in
// order, and on NotifyNoMoreTokens emits archive as its single result;
// entries still in live at that point are discarded.
type Algo[R any] struct {
	cfg Config[R]

	live       Table[R]
	archive    Table[R]
	nextID     int
	frameIndex int

	done     bool
	emitted  bool
	hasEmit  bool
	result   Table[R]
}

// New constructs a TrackerBridgeAlgo. cfg.Track must be non-nil; if no
// tracking callback is configured, this algo should simply not be
// constructed.
func New[R any](cfg Config[R]) *Algo[R] {
	return &Algo[R]{
		cfg:     cfg,
		live:    make(Table[R]),
		archive: make(Table[R]),
	}
}

// Insert feeds every frame in tokens to the foreign callback in order,
// skipping empty/corrupted frames, advancing frameIndex and nextID as the
// callback reports them.
func (a *Algo[R]) Insert(tokens []videoframe.Frame) {
	for _, frame := range tokens {
		if frame.Mat.Empty() {
			continue
		}

		foreignRuntimeLock.Lock()
		newNextID, err := a.cfg.Track(frame, a.frameIndex, a.live, a.archive, a.nextID)
		foreignRuntimeLock.Unlock()

		frame.Mat.Close()
		a.frameIndex++

		if err != nil {
			a.logger().Warn("tracker callback failed", "frame_index", a.frameIndex-1, "err", err)
			continue
		}
		a.nextID = newNextID
	}
}

// TryGetResult returns the final archive table exactly once, after
// NotifyNoMoreTokens has been called.
func (a *Algo[R]) TryGetResult() (Table[R], bool) {
	if !a.done || a.emitted {
		return nil, false
	}
	a.emitted = true
	return a.result, true
}

// NotifyNoMoreTokens moves archive into the result returned by
// TryGetResult and clears live, holding the foreign lock for the duration
// of the move since a well-behaved TrackFunc may expect exclusive access
// to both tables until teardown completes.
func (a *Algo[R]) NotifyNoMoreTokens() {
	foreignRuntimeLock.Lock()
	a.result = a.archive
	a.archive = nil
	a.live = nil
	foreignRuntimeLock.Unlock()

	a.hasEmit = true
	a.done = true
}

// HasResults reports whether the final archive table is computed and
// pending.
func (a *Algo[R]) HasResults() bool {
	return a.done && a.hasEmit && !a.emitted
}

func (a *Algo[R]) logger() *slog.Logger {
	if a.cfg.Logger != nil {
		return a.cfg.Logger
	}
	return slog.Default()
}
