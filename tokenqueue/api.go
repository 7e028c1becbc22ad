package tokenqueue

import "github.com/UkoeHB/CvVidProc/tokenqueue/internal/queue"

// Outcome classifies the result of a queue operation.
type Outcome = queue.Outcome

const (
	Success   = queue.Success
	ShutDown  = queue.ShutDown
	QueueFull = queue.QueueFull
	QueueEmpty = queue.QueueEmpty
	LockFail  = queue.LockFail
)

// BoundedTokenQueue is a thread-safe FIFO with a capacity cap, blocking and
// non-blocking insert/get, and explicit shutdown. It is the sole exchange
// point between goroutines anywhere in the pipeline: a BatchGenerator feeds
// a TokenProcess through one, a ProcessingUnit owns a pair of them (input and
// output), and an Intermediary shuttles combined tokens between two
// TokenProcess stages through one.
//
// Capacity <= 0 means unbounded: inserts never block on length.
type BoundedTokenQueue[T any] struct {
	inner *queue.Queue[T]
}

// NewBoundedTokenQueue constructs a queue with the given capacity.
func NewBoundedTokenQueue[T any](capacity int) *BoundedTokenQueue[T] {
	return &BoundedTokenQueue[T]{inner: queue.New[T](capacity)}
}

// Insert blocks while the queue is full and open. force=true bypasses the
// capacity check; it exists solely so a ProcessingUnit worker can deliver its
// final result during shutdown without deadlocking against a consumer that
// has stopped draining. Insert never bypasses strict per-queue FIFO ordering.
func (q *BoundedTokenQueue[T]) Insert(token T, force bool) Outcome {
	return q.inner.Insert(token, force)
}

// TryInsert is the non-blocking variant of Insert. Callers that receive
// QueueFull must honour the Alternation Rule: attempt TryGetResult on the
// owning unit before retrying the insert, to avoid a two-queue deadlock.
func (q *BoundedTokenQueue[T]) TryInsert(token T, force bool) Outcome {
	return q.inner.TryInsert(token, force)
}

// Get blocks while the queue is empty and open.
func (q *BoundedTokenQueue[T]) Get() (T, Outcome) {
	return q.inner.Get()
}

// TryGet is the non-blocking variant of Get.
func (q *BoundedTokenQueue[T]) TryGet() (T, Outcome) {
	return q.inner.TryGet()
}

// ShutDown is idempotent and wakes every waiter blocked on Insert or Get.
func (q *BoundedTokenQueue[T]) ShutDown() {
	q.inner.ShutDown()
}

// IsEmpty reports whether the queue currently holds no tokens.
func (q *BoundedTokenQueue[T]) IsEmpty() bool {
	return q.inner.IsEmpty()
}

// QueueOpen reports whether the queue still accepts non-forced inserts.
func (q *BoundedTokenQueue[T]) QueueOpen() bool {
	return q.inner.QueueOpen()
}

// IsShuttingDown reports whether ShutDown has been called, regardless of
// whether the queue has fully drained.
func (q *BoundedTokenQueue[T]) IsShuttingDown() bool {
	return q.inner.IsShuttingDown()
}

// Len returns the number of tokens currently queued.
func (q *BoundedTokenQueue[T]) Len() int {
	return q.inner.Len()
}
