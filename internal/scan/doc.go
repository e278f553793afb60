// Package scan contains the batch scheduler and response demultiplexer at
// the core of lumen.
//
// Check units are packed into token-budget-respecting batches (planner),
// rendered into a single delimited prompt per batch (composer), dispatched
// to the inference provider through a bounded worker pool with retry and
// rate-limit backpressure (engine), and the one free-text model response is
// split back into per-unit results (demultiplexer). The composer and the
// demultiplexer share one header grammar; see header.go.
package scan
