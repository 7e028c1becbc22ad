package pipeline

import "testing"

// sumConsumer accumulates every token it sees, tagged by batch index, and
// reports the grand total as its Final value.
type sumConsumer struct {
	batchSize int
	total     int
}

func (c *sumConsumer) Consume(token int, batchIndex int) { c.total += token }
func (c *sumConsumer) Finalize() int                     { t := c.total; c.total = 0; return t }
func (c *sumConsumer) BatchSize() int                    { return c.batchSize }

func TestTokenProcessSingleUnitSynchronous(t *testing.T) {
	gen := NewBatchGenerator[int](1, 4)
	consumer := &sumConsumer{batchSize: 1}

	proc, err := NewTokenProcess[int, int, int](4, true, 4, 1, gen, consumer)
	if err != nil {
		t.Fatalf("NewTokenProcess: %v", err)
	}

	algo := &sliceGeneratorAlgo{items: []int{1, 2, 3, 4, 5}, batchSize: 1}
	gen.Start([]GeneratorAlgo[int]{algo})

	final, err := proc.Run([]AlgoFactory[int, int]{
		func() ProcessorAlgo[int, int] { return &doublingAlgo{} },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if final != (1+2+3+4+5)*2 {
		t.Fatalf("final = %d, want %d", final, (1+2+3+4+5)*2)
	}
}

func TestTokenProcessMultiUnitAsync(t *testing.T) {
	gen := NewBatchGenerator[int](2, 4)
	consumer := &sumConsumer{batchSize: 2}

	proc, err := NewTokenProcess[int, int, int](4, true, 4, 2, gen, consumer)
	if err != nil {
		t.Fatalf("NewTokenProcess: %v", err)
	}

	algo := &sliceGeneratorAlgo{items: []int{1, 2, 3, 4, 5, 6, 7, 8}, batchSize: 2}
	gen.Start([]GeneratorAlgo[int]{algo})

	final, err := proc.Run([]AlgoFactory[int, int]{
		func() ProcessorAlgo[int, int] { return &doublingAlgo{} },
		func() ProcessorAlgo[int, int] { return &doublingAlgo{} },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := (1 + 2 + 3 + 4 + 5 + 6 + 7 + 8) * 2
	if final != want {
		t.Fatalf("final = %d, want %d", final, want)
	}
}

func TestTokenProcessBatchSizeMismatchRejected(t *testing.T) {
	gen := NewBatchGenerator[int](1, 4)
	consumer := &sumConsumer{batchSize: 2}

	if _, err := NewTokenProcess[int, int, int](4, true, 4, 1, gen, consumer); err == nil {
		t.Fatal("expected error for mismatched batch size")
	}
}

func TestTokenProcessRunLockReleasedAfterRun(t *testing.T) {
	gen := NewBatchGenerator[int](1, 4)
	consumer := &sumConsumer{batchSize: 1}
	proc, err := NewTokenProcess[int, int, int](4, true, 4, 1, gen, consumer)
	if err != nil {
		t.Fatalf("NewTokenProcess: %v", err)
	}

	algo := &sliceGeneratorAlgo{items: []int{1}, batchSize: 1}
	gen.Start([]GeneratorAlgo[int]{algo})

	done := make(chan struct{})
	go func() {
		proc.Run([]AlgoFactory[int, int]{
			func() ProcessorAlgo[int, int] { return &doublingAlgo{} },
		})
		close(done)
	}()
	<-done

	// A second Run after the first completed must succeed, not error; the
	// guard only rejects truly concurrent calls, which are racy to test
	// deterministically, so we only assert the lock is released afterward.
	gen.Reset()
	algo2 := &sliceGeneratorAlgo{items: []int{2}, batchSize: 1}
	gen.Start([]GeneratorAlgo[int]{algo2})
	if _, err := proc.Run([]AlgoFactory[int, int]{
		func() ProcessorAlgo[int, int] { return &doublingAlgo{} },
	}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}
