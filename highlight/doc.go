// Package highlight implements HighlightObjectsAlgo, a pipeline.ProcessorAlgo
// that locates objects against a known background: the tracking exemplar's
// first stage, producing a black-and-white mask per fragment for the
// downstream tracker bridge to consume.
//
// The mask is the union of two independent passes over the same
// background-difference image: a coarse pass (low threshold, large minimum
// object size) that catches faint, large objects, and a hysteresis pass
// (dual threshold, small minimum object size) that catches distinct, small
// ones. Both passes close small gaps with a morphological open, discard
// contours under their minimum area, and fill enclosed holes before the
// final bitwise-OR merge.
package highlight
