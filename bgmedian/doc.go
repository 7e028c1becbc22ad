// Package bgmedian implements HistogramMedianAlgo, a pipeline.ProcessorAlgo
// that computes the per-pixel temporal median over a stream of same-shaped
// video fragments: the background-extraction exemplar the core pipeline
// framework is built to exercise.
//
// Algo is parametric over the histogram counter width (uint8, uint16, or
// uint32); SelectCounterWidth picks the narrowest width that cannot
// overflow for a given frame count, matching the source's three-way
// counter-type dispatch performed before construction.
package bgmedian
