package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/UkoeHB/CvVidProc/timing"
)

// TokenProcess is the coordinator that runs one pipeline stage: it owns N
// ProcessingUnits (N = batch size), pulls batches from a Generator, routes
// each batch element to the unit of matching index, drains unit results to
// a BatchConsumer, and performs orderly shutdown.
//
// A TokenProcess is built once and is Run-callable any number of times
// (sequentially); concurrent Run calls are rejected via a try-lock.
type TokenProcess[In, Out, Final any] struct {
	workerLimit        int
	synchronousAllowed bool
	queueCapacity      int
	batchSize          int

	gen      Generator[In]
	consumer BatchConsumer[Out, Final]

	runMu sync.Mutex
	timer timing.IntervalTimer
}

// NewTokenProcess validates that batchSize agrees with the consumer's own
// notion of N, and that 1 <= batchSize <= workerLimit.
func NewTokenProcess[In, Out, Final any](
	workerLimit int,
	synchronousAllowed bool,
	queueCapacity int,
	batchSize int,
	gen Generator[In],
	consumer BatchConsumer[Out, Final],
) (*TokenProcess[In, Out, Final], error) {
	if batchSize != consumer.BatchSize() {
		return nil, fmt.Errorf("pipeline: batch size %d != consumer batch size %d: %w", batchSize, consumer.BatchSize(), ErrBatchSizeMismatch)
	}
	if batchSize < 1 || batchSize > workerLimit {
		return nil, fmt.Errorf("pipeline: batch size %d outside [1,%d]: %w", batchSize, workerLimit, ErrInvalidBatchSize)
	}

	return &TokenProcess[In, Out, Final]{
		workerLimit:        workerLimit,
		synchronousAllowed: synchronousAllowed,
		queueCapacity:      queueCapacity,
		batchSize:          batchSize,
		gen:                gen,
		consumer:           consumer,
	}, nil
}

// AlgoFactory constructs one ProcessorAlgo instance for a single
// ProcessingUnit. Run takes one factory per unit (len(factories) == N),
// replacing the source's per-algorithm TokenProcessorPack construction
// parameter with an idiomatic closure.
type AlgoFactory[In, Out any] func() ProcessorAlgo[In, Out]

// Run executes one full pipeline pass: construct units, pump batches
// through them honouring the Alternation Rule, shut down, drain, and
// finalize. It returns ErrAlreadyRunning if a concurrent Run is already in
// progress on this TokenProcess.
func (p *TokenProcess[In, Out, Final]) Run(factories []AlgoFactory[In, Out]) (Final, error) {
	var zero Final

	if !p.runMu.TryLock() {
		return zero, ErrAlreadyRunning
	}
	defer p.runMu.Unlock()

	n := len(factories)
	if n != p.batchSize {
		return zero, fmt.Errorf("pipeline: %d factories supplied for batch size %d: %w", n, p.batchSize, ErrBatchSizeMismatch)
	}

	synchronous := p.synchronousAllowed && n == 1

	units := make([]*ProcessingUnit[In, Out], n)
	for i := 0; i < n; i++ {
		units[i] = NewProcessingUnit[In, Out](synchronous, p.queueCapacity)
		units[i].Start(factories[i]())
	}

	if err := p.pump(units); err != nil {
		return zero, err
	}

	for _, u := range units {
		u.ShutDown()
	}

	if err := p.drain(units); err != nil {
		return zero, err
	}

	for _, u := range units {
		u.Close()
	}

	final := p.consumer.Finalize()
	p.gen.Reset()
	return final, nil
}

func (p *TokenProcess[In, Out, Final]) pump(units []*ProcessingUnit[In, Out]) error {
	n := len(units)

	for {
		batch := p.gen.GetBatch()
		if len(batch) == 0 {
			return nil
		}
		if len(batch) != n {
			return fmt.Errorf("pipeline: generator produced batch of length %d, want %d: %w", len(batch), n, ErrBatchSizeMismatch)
		}

		start := time.Now()
		if err := p.deliveryRound(units, batch); err != nil {
			return err
		}
		p.timer.AddInterval(start)
	}
}

// deliveryRound drives one batch to full delivery: slots are visited in
// ascending index order on every pass; if any slot remains held after a
// pass and some unit reported QueueFull, the coordinator waits on that
// unit's unblocking event before the next pass, rather than busy-spinning.
func (p *TokenProcess[In, Out, Final]) deliveryRound(units []*ProcessingUnit[In, Out], batch []In) error {
	held := make([]bool, len(batch))
	for i := range held {
		held[i] = true
	}

	for {
		lastFull := -1
		anyHeld := false

		for i, unit := range units {
			if held[i] {
				switch outcome := unit.TryInsert(batch[i]); outcome {
				case Success:
					held[i] = false
				case QueueFull:
					lastFull = i
					anyHeld = true
				case LockFail:
					anyHeld = true
				default:
					return fmt.Errorf("pipeline: try_insert on unit %d: %w", i, ErrGeneralFailure)
				}
			}

			if result, outcome := unit.TryGetResult(); outcome == Success {
				p.consumer.Consume(result, i)
			} else if outcome != QueueEmpty && outcome != ShutDown && outcome != LockFail {
				return fmt.Errorf("pipeline: try_get_result on unit %d: %w", i, ErrGeneralFailure)
			}
		}

		if !anyHeld {
			return nil
		}
		if lastFull >= 0 {
			units[lastFull].WaitForUnblockingEvent()
		}
	}
}

// drain loops until every unit reaches Stopped, feeding any lingering
// results to the consumer along the way.
func (p *TokenProcess[In, Out, Final]) drain(units []*ProcessingUnit[In, Out]) error {
	for {
		lastAlive := -1
		allStopped := true

		for i, unit := range units {
			if unit.TryStop() {
				continue
			}
			allStopped = false
			lastAlive = i

			if result, outcome := unit.TryGetResult(); outcome == Success {
				p.consumer.Consume(result, i)
			}
		}

		if allStopped {
			return nil
		}
		if lastAlive >= 0 {
			units[lastAlive].WaitForResult()
		}
	}
}

// TimingReport returns the accumulated per-batch pump timing.
func (p *TokenProcess[In, Out, Final]) TimingReport() timing.Report {
	return p.timer.Report()
}
