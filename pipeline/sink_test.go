package pipeline

import "testing"

func TestSingleResultConsumerReturnsLastValue(t *testing.T) {
	c := NewSingleResultConsumer[int]()
	if c.BatchSize() != 1 {
		t.Fatalf("BatchSize() = %d, want 1", c.BatchSize())
	}

	c.Consume(1, 0)
	c.Consume(2, 0)

	if got := c.Finalize(); got != 2 {
		t.Fatalf("Finalize() = %d, want 2", got)
	}
}
