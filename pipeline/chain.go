package pipeline

import (
	"golang.org/x/sync/errgroup"
)

// Chain runs upstream on its own goroutine via errgroup.Group.Go and
// downstream synchronously on the caller's goroutine, per the Chaining
// discipline: an Intermediary standing between two TokenProcess stages is
// both the upstream's BatchConsumer and the downstream's Generator, so
// upstream must be pumping concurrently with downstream's blocking reads
// from the shuttle queue. Chain returns once downstream returns; any
// upstream error is then available from the returned error (upstream
// errors take precedence when both stages fail).
func Chain(upstream, downstream func() error) error {
	var g errgroup.Group
	g.Go(upstream)

	downstreamErr := downstream()
	upstreamErr := g.Wait()

	if upstreamErr != nil {
		return upstreamErr
	}
	return downstreamErr
}
