package pipeline

import (
	"sync"

	"github.com/UkoeHB/CvVidProc/tokenqueue"
)

// Intermediary stands between two TokenProcess stages: it is a
// BatchConsumer for the upstream stage and a Generator for the downstream
// stage, bridging them through an internal shuttle queue. Upstream results
// arrive tagged with a batch index; once every slot has produced at least
// one token, Intermediary pops one token per slot, combines them with the
// Combine function into a single downstream token, and pushes it onto the
// shuttle queue. The downstream TokenProcess always sees singleton batches.
type Intermediary[In, Out, Final any] struct {
	batchSize       int
	shuttleCapacity int
	combine         func([]In) Out
	onFinish        func() Final

	mu    sync.Mutex
	slots [][]In

	shuttle *tokenqueue.BoundedTokenQueue[Out]
}

// NewIntermediary constructs an Intermediary with batchSize upstream slots,
// a shuttle queue of the given capacity, a function to combine one token
// per slot into a single downstream token, and a function producing the
// terminal marker returned by Finalize.
func NewIntermediary[In, Out, Final any](batchSize, shuttleCapacity int, combine func([]In) Out, onFinish func() Final) *Intermediary[In, Out, Final] {
	return &Intermediary[In, Out, Final]{
		batchSize:       batchSize,
		shuttleCapacity: shuttleCapacity,
		combine:         combine,
		onFinish:        onFinish,
		slots:           make([][]In, batchSize),
		shuttle:         tokenqueue.NewBoundedTokenQueue[Out](shuttleCapacity),
	}
}

// BatchSize reports the upstream (consumer-side) batch width N.
func (m *Intermediary[In, Out, Final]) BatchSize() int { return m.batchSize }

// Consume appends token to its slot's deque. When every slot holds at least
// one token, it pops the oldest from each, combines them, and pushes the
// result onto the shuttle queue (this may block if the shuttle is full).
func (m *Intermediary[In, Out, Final]) Consume(token In, batchIndex int) {
	m.mu.Lock()
	m.slots[batchIndex] = append(m.slots[batchIndex], token)
	combined, ready := m.tryCombine()
	m.mu.Unlock()

	if ready {
		m.shuttle.Insert(combined, false)
	}
}

// tryCombine must be called with mu held. It pops one token from the front
// of every slot and combines them, or reports false if any slot is empty.
func (m *Intermediary[In, Out, Final]) tryCombine() (Out, bool) {
	var zero Out
	for _, slot := range m.slots {
		if len(slot) == 0 {
			return zero, false
		}
	}

	fronts := make([]In, m.batchSize)
	for i, slot := range m.slots {
		fronts[i] = slot[0]
		m.slots[i] = slot[1:]
	}
	return m.combine(fronts), true
}

// Finalize flushes any partially-assembled leftovers on a best-effort
// basis (combining whatever is present per slot, in ascending slot order;
// this may be out-of-order across slots if callers sent uneven counts to
// each index), shuts down the shuttle queue, and returns the terminal
// marker.
func (m *Intermediary[In, Out, Final]) Finalize() Final {
	m.mu.Lock()
	for {
		hasAny := false
		for _, slot := range m.slots {
			if len(slot) > 0 {
				hasAny = true
				break
			}
		}
		if !hasAny {
			break
		}

		fronts := make([]In, 0, m.batchSize)
		for i, slot := range m.slots {
			if len(slot) > 0 {
				fronts = append(fronts, slot[0])
				m.slots[i] = slot[1:]
			}
		}
		if len(fronts) == 0 {
			break
		}
		combined := m.combine(fronts)
		m.mu.Unlock()
		m.shuttle.Insert(combined, false)
		m.mu.Lock()
	}
	m.mu.Unlock()

	m.shuttle.ShutDown()
	return m.onFinish()
}

// GetBatch returns a singleton batch holding the next shuttled token, or
// nil once the shuttle queue has shut down and drained.
func (m *Intermediary[In, Out, Final]) GetBatch() []Out {
	token, outcome := m.shuttle.Get()
	if outcome == ShutDown {
		return nil
	}
	return []Out{token}
}

// Reset clears per-slot state so the Intermediary can back a new run. The
// shuttle queue was shut down by the prior run's Finalize and cannot accept
// new tokens, so Reset recreates it from the capacity captured at
// construction time; any caller still holding a reference to the old
// shuttle from a prior run must not use it further.
func (m *Intermediary[In, Out, Final]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.slots {
		m.slots[i] = nil
	}
	m.shuttle = tokenqueue.NewBoundedTokenQueue[Out](m.shuttleCapacity)
}
