package pipeline

import (
	"sort"
	"testing"
)

func TestIntermediaryCombinesOncePerSlotFilled(t *testing.T) {
	combineCalls := 0
	m := NewIntermediary[int, int, string](2, 4,
		func(tokens []int) int {
			combineCalls++
			sum := 0
			for _, v := range tokens {
				sum += v
			}
			return sum
		},
		func() string { return "done" },
	)

	go func() {
		m.Consume(1, 0)
		m.Consume(2, 1)
	}()

	batch := m.GetBatch()
	if len(batch) != 1 || batch[0] != 3 {
		t.Fatalf("batch = %v, want [3]", batch)
	}
	if combineCalls != 1 {
		t.Fatalf("combineCalls = %d, want 1", combineCalls)
	}
}

func TestIntermediaryFinalizeFlushesPartialAndShutsDown(t *testing.T) {
	m := NewIntermediary[int, int, string](2, 4,
		func(tokens []int) int {
			sum := 0
			for _, v := range tokens {
				sum += v
			}
			return sum
		},
		func() string { return "finished" },
	)

	// Only slot 0 gets a token; Finalize must flush it through the combine
	// function with whatever is present rather than waiting forever.
	m.Consume(10, 0)

	final := m.Finalize()
	if final != "finished" {
		t.Fatalf("final = %q, want %q", final, "finished")
	}

	var got []int
	for {
		batch := m.GetBatch()
		if len(batch) == 0 {
			break
		}
		got = append(got, batch...)
	}
	if len(got) != 1 || got[0] != 10 {
		t.Fatalf("flushed batches = %v, want [10]", got)
	}
}

func TestIntermediaryMultipleRounds(t *testing.T) {
	m := NewIntermediary[int, int, string](2, 8,
		func(tokens []int) int {
			sort.Ints(tokens)
			return tokens[0]*10 + tokens[1]
		},
		func() string { return "ok" },
	)

	go func() {
		for i := 0; i < 3; i++ {
			m.Consume(i, 0)
			m.Consume(i+100, 1)
		}
		m.Finalize()
	}()

	var got []int
	for {
		batch := m.GetBatch()
		if len(batch) == 0 {
			break
		}
		got = append(got, batch...)
	}
	if len(got) != 3 {
		t.Fatalf("got %d combined tokens, want 3", len(got))
	}
}
