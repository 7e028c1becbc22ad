package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/UkoeHB/CvVidProc/timing"
	"github.com/UkoeHB/CvVidProc/tokenqueue"
)

// UnitState is the lifecycle state of a ProcessingUnit.
type UnitState int

const (
	Idle UnitState = iota
	Running
	Draining
	Stopped
)

func (s UnitState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// ProcessingUnit owns one ProcessorAlgo plus its input/output queues and
// worker goroutine. When batchSize==1 and synchronousAllowed is true, it
// runs in synchronous mode: Insert/TryGetResult execute on the caller's
// goroutine and both queues are skipped entirely.
type ProcessingUnit[In, Out any] struct {
	synchronous bool
	algo        ProcessorAlgo[In, Out]

	inputQueue  *tokenqueue.BoundedTokenQueue[In]
	outputQueue *tokenqueue.BoundedTokenQueue[Out]

	unblockMu   sync.Mutex
	unblockCond *sync.Cond
	changed     bool

	mu    sync.Mutex
	state UnitState

	workerDone chan struct{}

	timer timing.IntervalTimer
}

// NewProcessingUnit constructs a unit in the Idle state. queueCapacity
// configures both the input and output queue capacities in async mode; it
// is ignored in synchronous mode.
func NewProcessingUnit[In, Out any](synchronous bool, queueCapacity int) *ProcessingUnit[In, Out] {
	u := &ProcessingUnit[In, Out]{
		synchronous: synchronous,
		state:       Idle,
	}
	u.unblockCond = sync.NewCond(&u.unblockMu)
	if !synchronous {
		u.inputQueue = tokenqueue.NewBoundedTokenQueue[In](queueCapacity)
		u.outputQueue = tokenqueue.NewBoundedTokenQueue[Out](queueCapacity)
	}
	return u
}

// Start transitions Idle->Running, installing algo as the unit's
// ProcessorAlgo. In async mode it spawns the worker goroutine.
func (u *ProcessingUnit[In, Out]) Start(algo ProcessorAlgo[In, Out]) {
	u.mu.Lock()
	if u.state != Idle {
		u.mu.Unlock()
		panic("pipeline: Start called on a unit that is not Idle")
	}
	u.algo = algo
	u.state = Running
	u.mu.Unlock()

	if !u.synchronous {
		u.workerDone = make(chan struct{})
		go u.workerLoop()
	}
}

func (u *ProcessingUnit[In, Out]) notifyUnblock() {
	u.unblockMu.Lock()
	u.changed = true
	u.unblockMu.Unlock()
	u.unblockCond.Broadcast()
}

func (u *ProcessingUnit[In, Out]) setState(s UnitState) {
	u.mu.Lock()
	u.state = s
	u.mu.Unlock()
}

func (u *ProcessingUnit[In, Out]) State() UnitState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// workerLoop is the async-mode worker goroutine. It mirrors the classic
// "get token, insert into algo, drain pending results" loop: after the
// input queue shuts down, it notifies the algo, drains any trailing
// results with force-insert (to avoid deadlocking a coordinator that has
// already stopped draining), then shuts the output queue down.
func (u *ProcessingUnit[In, Out]) workerLoop() {
	defer close(u.workerDone)

	for {
		token, outcome := u.inputQueue.Get()
		if outcome == ShutDown {
			break
		}
		u.notifyUnblock()

		start := time.Now()
		u.algo.Insert(token)
		u.timer.AddInterval(start)

		for {
			result, ok := u.algo.TryGetResult()
			if !ok {
				break
			}
			u.outputQueue.Insert(result, false)
			u.notifyUnblock()
		}
	}

	u.setState(Draining)
	u.notifyUnblock()

	u.algo.NotifyNoMoreTokens()
	for {
		result, ok := u.algo.TryGetResult()
		if !ok {
			break
		}
		// force=true: deliver the final result even if a coordinator has
		// already stopped draining this unit's output queue.
		u.outputQueue.Insert(result, true)
	}
	u.outputQueue.ShutDown()
	u.notifyUnblock()
}

// TryInsert routes to the input queue's TryInsert in async mode, or invokes
// algo.Insert directly (always Success) in synchronous mode.
func (u *ProcessingUnit[In, Out]) TryInsert(token In) Outcome {
	if u.synchronous {
		u.algo.Insert(token)
		return Success
	}
	return u.inputQueue.TryInsert(token, false)
}

// TryGetResult is the symmetric non-blocking result fetch.
func (u *ProcessingUnit[In, Out]) TryGetResult() (Out, Outcome) {
	if u.synchronous {
		result, ok := u.algo.TryGetResult()
		if ok {
			return result, Success
		}
		var zero Out
		return zero, QueueEmpty
	}
	return u.outputQueue.TryGet()
}

// ShutDown signals that no more tokens will be inserted. In async mode it
// shuts the input queue down; the worker drains and shuts the output queue
// down itself. In synchronous mode it calls NotifyNoMoreTokens immediately.
func (u *ProcessingUnit[In, Out]) ShutDown() {
	if u.synchronous {
		u.algo.NotifyNoMoreTokens()
		u.setState(Draining)
		return
	}
	u.inputQueue.ShutDown()
}

// TryStop returns true only once the unit has fully quiesced: in async
// mode, the worker goroutine has exited and the output queue is shut down
// and empty; in synchronous mode, the algorithm reports no further
// results. A true result transitions the unit to Stopped.
func (u *ProcessingUnit[In, Out]) TryStop() bool {
	if u.State() == Stopped {
		return true
	}

	if u.synchronous {
		if u.algo.HasResults() {
			return false
		}
		u.setState(Stopped)
		return true
	}

	select {
	case <-u.workerDone:
	default:
		return false
	}

	if !u.outputQueue.IsShuttingDown() || !u.outputQueue.IsEmpty() {
		return false
	}

	u.setState(Stopped)
	return true
}

// Close enforces the §4.6 destruction contract: a unit the owner is done
// with must already be Stopped (shut down, then spun on TryStop until it
// succeeds). Calling Close any earlier is a caller bug, not a runtime
// condition to recover from, so it panics rather than returning an error.
func (u *ProcessingUnit[In, Out]) Close() {
	if u.State() != Stopped {
		panic(fmt.Errorf("%w: state=%s", ErrUnitNotStopped, u.State()))
	}
}

// WaitForUnblockingEvent blocks until either the input queue becomes
// insertable, a result appears in the output queue, or the unit enters
// Draining. It returns immediately in synchronous mode (there is nothing to
// wait on).
func (u *ProcessingUnit[In, Out]) WaitForUnblockingEvent() {
	if u.synchronous {
		return
	}

	u.unblockMu.Lock()
	defer u.unblockMu.Unlock()
	for !u.changed && u.State() != Draining {
		u.unblockCond.Wait()
	}
	u.changed = false
}

// WaitForResult blocks until a result appears in the output queue or the
// output queue is shut down. Async mode only.
func (u *ProcessingUnit[In, Out]) WaitForResult() {
	if u.synchronous {
		return
	}

	// Waits on the unblocking condition directly rather than through
	// WaitForUnblockingEvent, so the changed flag is left for a concurrent
	// WaitForUnblockingEvent caller instead of being consumed here.
	u.unblockMu.Lock()
	defer u.unblockMu.Unlock()
	for u.outputQueue.Len() == 0 && !u.outputQueue.IsShuttingDown() {
		u.unblockCond.Wait()
	}
}

// TimingReport returns the accumulated per-token ingestion timing.
func (u *ProcessingUnit[In, Out]) TimingReport() timing.Report {
	return u.timer.Report()
}
