package pipeline

import (
	"errors"

	"github.com/UkoeHB/CvVidProc/tokenqueue"
)

// Outcome classifies the result of a try_insert/try_get_result call.
type Outcome = tokenqueue.Outcome

const (
	Success    = tokenqueue.Success
	ShutDown   = tokenqueue.ShutDown
	QueueFull  = tokenqueue.QueueFull
	QueueEmpty = tokenqueue.QueueEmpty
	LockFail   = tokenqueue.LockFail
)

// Sentinel errors surfaced across the pipeline per the error-handling
// design: kind 5 (misuse) and kind 1 (input-invalid) fail fast with one of
// these, wrapped with context via fmt.Errorf("...: %w", err).
var (
	// ErrAlreadyRunning is returned by TokenProcess.Run when a concurrent
	// call is already in progress (single-owner / re-entrancy guard).
	ErrAlreadyRunning = errors.New("pipeline: process is already running")
	// ErrBatchSizeMismatch is returned when the generator, consumer, and
	// configured unit count disagree on N.
	ErrBatchSizeMismatch = errors.New("pipeline: generator/consumer/unit batch size mismatch")
	// ErrInvalidBatchSize is returned for N < 1 or N > workerLimit.
	ErrInvalidBatchSize = errors.New("pipeline: batch size out of range")
	// ErrGeneralFailure wraps a GeneralFail outcome from a queue operation
	// that is neither a capacity/emptiness condition nor a shutdown.
	ErrGeneralFailure = errors.New("pipeline: unit reported a general failure")
	// ErrUnitNotStopped is raised (as a panic, matching the fail-fast
	// destruction contract) when a ProcessingUnit is discarded before
	// reaching the Stopped state.
	ErrUnitNotStopped = errors.New("pipeline: processing unit destroyed before reaching Stopped")
)

// GeneratorAlgo is a pluggable, single-threaded source of batches. Returning
// an empty batch means the algorithm is permanently exhausted; the caller
// (a BatchGenerator) must not call GetBatch again after an empty result.
type GeneratorAlgo[T any] interface {
	GetBatch() []T
}

// ProcessorAlgo is a pluggable, single-threaded transform. The surrounding
// ProcessingUnit supplies all concurrency; implementations never need their
// own locks for In/Out token state.
type ProcessorAlgo[In, Out any] interface {
	// Insert always accepts the token; it may produce zero or more pending
	// results, retrievable via TryGetResult.
	Insert(token In)
	// TryGetResult returns a pending result and true, or the zero value and
	// false if none is ready yet.
	TryGetResult() (Out, bool)
	// NotifyNoMoreTokens signals that Insert will not be called again. Only
	// TryGetResult may be called afterwards, until it returns false forever.
	NotifyNoMoreTokens()
	// HasResults reports whether at least one result is currently pending,
	// without consuming it. Used by the synchronous-mode shutdown path.
	HasResults() bool
}

// BatchConsumer is a pluggable sink: Consume receives per-unit results
// tagged with their originating batch index, and Finalize produces (and
// resets) the terminal result once a run completes.
type BatchConsumer[Out, Final any] interface {
	Consume(token Out, batchIndex int)
	Finalize() Final
	BatchSize() int
}

// Generator is the interface a TokenProcess pulls batches from. It is
// satisfied by *BatchGenerator[T] and by Intermediary acting as a
// downstream generator. Batch size is supplied explicitly to
// NewTokenProcess rather than queried through this interface, so that a
// single Intermediary value - which is a consumer of N-wide batches
// upstream and a generator of singleton batches downstream - can implement
// both roles without its two distinct batch sizes colliding on one method
// name.
type Generator[T any] interface {
	GetBatch() []T
	Reset()
}
