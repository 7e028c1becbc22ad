package pipeline

import "sync"

// SingleResultConsumer is a BatchConsumer[T, T] for the common case of a
// singleton-batch downstream stage: Consume just remembers the latest
// value, and Finalize returns it. Used to terminate a chain whose
// ProcessorAlgo already produces the whole-run result on its own (as
// TrackerBridgeAlgo does), where no further assembly is needed.
type SingleResultConsumer[T any] struct {
	mu     sync.Mutex
	result T
}

// NewSingleResultConsumer constructs a SingleResultConsumer.
func NewSingleResultConsumer[T any]() *SingleResultConsumer[T] {
	return &SingleResultConsumer[T]{}
}

// BatchSize is always 1: a SingleResultConsumer only ever backs a
// single-unit downstream stage.
func (c *SingleResultConsumer[T]) BatchSize() int { return 1 }

// Consume stores token, overwriting any previous value.
func (c *SingleResultConsumer[T]) Consume(token T, batchIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = token
}

// Finalize returns the last stored value.
func (c *SingleResultConsumer[T]) Finalize() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
