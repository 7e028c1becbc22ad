// Package tokenqueue provides a bounded, thread-safe FIFO queue used as the
// sole hand-off point between goroutines throughout the pipeline.
//
// # Overview
//
// BoundedTokenQueue[T] pairs a capacity cap with blocking and non-blocking
// insert/get operations and an explicit, idempotent shutdown:
//
//	q := tokenqueue.NewBoundedTokenQueue[Frame](4)
//	defer q.ShutDown()
//
//	q.Insert(frame, false)       // blocks if len == cap
//	frame, outcome := q.Get()    // blocks if empty
//
// # Non-blocking variants
//
// TryInsert and TryGet never block; they return QueueFull, QueueEmpty, or
// LockFail instead. Callers using the non-blocking family to interleave two
// queues (as a ProcessingUnit does for its input and output queues) must
// honour the Alternation Rule: after a TryInsert reports QueueFull, attempt
// TryGetResult before retrying insert. This is what breaks the classic
// two-queue deadlock cycle when both queues are simultaneously at capacity.
//
// # Force-insert
//
// Insert(token, true) bypasses the capacity check but never bypasses FIFO
// ordering. It exists only so a worker can push its last result through
// during shutdown when the consuming side has already stopped draining.
//
// # Shutdown
//
// ShutDown is idempotent and wakes every blocked Insert/Get. After shutdown,
// plain inserts fail with ShutDown; gets continue to succeed until the queue
// drains, then also report ShutDown.
package tokenqueue
