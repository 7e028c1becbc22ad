package pipeline

import (
	"sync"
	"time"

	"github.com/UkoeHB/CvVidProc/timing"
	"github.com/UkoeHB/CvVidProc/tokenqueue"
)

// BatchGenerator owns one or more GeneratorAlgo instances, each running on
// its own goroutine, and funnels their batches into a shared bounded queue.
// GetBatch dequeues from that shared queue; once every algo has returned an
// empty batch and its goroutine has exited, the queue shuts down and
// subsequent GetBatch calls return an empty batch.
type BatchGenerator[T any] struct {
	batchSize int
	capacity  int

	queue *tokenqueue.BoundedTokenQueue[[]T]

	algos []GeneratorAlgo[T]
	wg    sync.WaitGroup

	timer timing.IntervalTimer
}

// NewBatchGenerator constructs a BatchGenerator. batchSize is the expected
// length of every non-empty batch (the N in the pipeline's batch-index
// routing contract); capacity bounds the shared queue.
func NewBatchGenerator[T any](batchSize, capacity int) *BatchGenerator[T] {
	return &BatchGenerator[T]{
		batchSize: batchSize,
		capacity:  capacity,
		queue:     tokenqueue.NewBoundedTokenQueue[[]T](capacity),
	}
}

// BatchSize reports N, the token count of every non-empty batch.
func (g *BatchGenerator[T]) BatchSize() int { return g.batchSize }

// Start spawns one goroutine per algo. Each goroutine repeatedly calls
// GetBatch and inserts non-empty results into the shared queue until it
// sees an empty batch, at which point it exits.
func (g *BatchGenerator[T]) Start(algos []GeneratorAlgo[T]) {
	g.algos = algos
	g.wg.Add(len(algos))

	for _, algo := range algos {
		algo := algo
		go func() {
			defer g.wg.Done()
			for {
				start := time.Now()
				batch := algo.GetBatch()
				g.timer.AddInterval(start)

				if len(batch) == 0 {
					return
				}
				g.queue.Insert(batch, false)
			}
		}()
	}

	go func() {
		g.wg.Wait()
		g.queue.ShutDown()
	}()
}

// GetBatch dequeues the next batch, or returns an empty slice once every
// algo has terminated and the shared queue has drained.
func (g *BatchGenerator[T]) GetBatch() []T {
	batch, outcome := g.queue.Get()
	if outcome == ShutDown {
		return nil
	}
	return batch
}

// Reset joins all generator goroutines (they should already have exited by
// the time a coordinator calls Reset, since GetBatch only returns empty
// after shutdown), asserts the queue is drained, and clears generator
// state so the same BatchGenerator can back a subsequent run.
func (g *BatchGenerator[T]) Reset() {
	g.wg.Wait()
	if !g.queue.IsEmpty() {
		panic("pipeline: BatchGenerator.Reset called with a non-empty queue")
	}
	g.queue = tokenqueue.NewBoundedTokenQueue[[]T](g.capacity)
	g.algos = nil
}

// TimingReport returns the accumulated per-batch production timing.
func (g *BatchGenerator[T]) TimingReport() timing.Report {
	return g.timer.Report()
}
