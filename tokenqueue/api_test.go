package tokenqueue_test

import (
	"testing"

	"github.com/UkoeHB/CvVidProc/tokenqueue"
)

func TestBoundedTokenQueueCapacity(t *testing.T) {
	q := tokenqueue.NewBoundedTokenQueue[string](1)

	if outcome := q.TryInsert("a", false); outcome != tokenqueue.Success {
		t.Fatalf("TryInsert() = %v, want Success", outcome)
	}
	if outcome := q.TryInsert("b", false); outcome != tokenqueue.QueueFull {
		t.Fatalf("TryInsert() on full queue = %v, want QueueFull", outcome)
	}

	got, outcome := q.Get()
	if outcome != tokenqueue.Success || got != "a" {
		t.Fatalf("Get() = (%q, %v), want (\"a\", Success)", got, outcome)
	}
}

func TestBoundedTokenQueueUnbounded(t *testing.T) {
	q := tokenqueue.NewBoundedTokenQueue[int](0)
	for i := 0; i < 1000; i++ {
		if outcome := q.Insert(i, false); outcome != tokenqueue.Success {
			t.Fatalf("Insert(%d) = %v, want Success", i, outcome)
		}
	}
	if q.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000", q.Len())
	}
}
