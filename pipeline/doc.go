// Package pipeline implements the reusable asynchronous token-processing
// framework: a bounded, multi-stage producer/processor/consumer pipeline
// that parallelises per-token work across worker goroutines while
// preserving deterministic batch-slot routing and backpressure.
//
// # Shape
//
// A GeneratorAlgo emits batches of tokens; a BatchGenerator runs one or more
// GeneratorAlgo instances on their own goroutines and funnels their output
// into a bounded queue. A TokenProcess owns N ProcessingUnits (N = batch
// size), pulls batches from the BatchGenerator, routes each batch element to
// the unit at its matching index, and drains unit results into a
// BatchConsumer. Two TokenProcess stages can be chained through an
// Intermediary, which is simultaneously a BatchConsumer for the upstream
// stage and a BatchGenerator for the downstream one.
//
// # Batch-index routing
//
// The batch index is the only routing key: the token at position i in a
// batch is always delivered to (or dropped along with) ProcessingUnit i.
// Results reach the consumer in per-slot FIFO order; there is no cross-slot
// ordering guarantee, since units run independently.
//
// # The Alternation Rule
//
// ProcessingUnit exposes try_insert/try_get_result as the only public
// surface for a reason: after a try_insert reports QueueFull, a caller must
// attempt try_get_result before retrying the insert. TokenProcess's delivery
// round follows this discipline internally; any other caller driving a
// ProcessingUnit directly must do the same to avoid a two-queue deadlock.
package pipeline
