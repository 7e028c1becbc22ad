// Package bubbletrack is a minimal nearest-centroid object tracker: the
// default tracker.TrackFunc wired by cmd/cvvidproc when tracking is enabled
// and the caller supplies no callback of its own.
package bubbletrack
