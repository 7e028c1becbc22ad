// Package videoframe provides the frame-source and tile/fragment machinery
// shared by the background-extraction and object-tracking pipelines: the
// VideoSource abstraction over file and live RTSP capture, the Frame/
// Fragment token types and their tile/untile math, and the FrameBatchAlgo /
// FragmentAssemblerConsumer pipeline.GeneratorAlgo and BatchConsumer
// implementations built on top of them.
package videoframe
