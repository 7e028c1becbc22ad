// Package tracker implements TrackerBridgeAlgo, a pipeline.ProcessorAlgo
// bridging the framework to an externally-supplied per-frame tracking
// function: the tracking exemplar's second stage, fed by highlight masks
// through a pipeline.Intermediary.
//
// The foreign-runtime GIL discipline this package exists to demonstrate is
// fully encapsulated here: every call into the configured TrackFunc is made
// while holding a package-level mutex standing in for a foreign
// interpreter's global lock, and nowhere else in the framework is aware of
// it.
package tracker
