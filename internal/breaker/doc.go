// Package breaker implements a circuit breaker guarding the target site.
//
// The breaker tracks consecutive fetch failures. Once the failure count
// reaches the threshold it opens and attempts are refused until the
// recovery timeout passes, at which point a single probe attempt is
// admitted (half-open). A successful probe closes the breaker; a failed
// probe reopens it for another full recovery period.
//
// This protects a struggling site from a worker pool that would otherwise
// keep hammering it with requests that are all going to fail.
package breaker
