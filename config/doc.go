// Package config loads and validates the YAML configuration file that
// drives cmd/cvvidproc: which video source to read, which algorithm to
// run, and how the processing units backing it are sized.
package config
