// Package supervisor owns the top-level run: given a validated
// config.Config and a context, it builds the matching VideoSource, wires up
// either the background-extraction pipeline or the tracking pipeline, runs
// the pipeline to completion (closing the source early when the context is
// cancelled), and logs a structured timing/result report. Loading the config
// and turning OS signals into context cancellation happen in cmd/cvvidproc.
// Together with that command it mirrors the lifecycle this
// domain's reference orchestrator uses: load config, build components, run,
// signal-aware shutdown, structured final report.
package supervisor
