// Package health monitors the resources a long crawl depends on: disk
// space, memory, CPU load, network reachability, and the output directory.
//
// The orchestrator polls the monitor on a timer. An unhealthy memory check
// halves the worker pool; the other checks produce warnings in the status
// snapshot. Probes that cannot run on the current platform report healthy
// with a note rather than failing the crawl.
package health
