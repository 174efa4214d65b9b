// Package ratelimit paces outbound requests and retries failed operations.
//
// The Limiter is a token bucket shared by all workers: it refills at a
// fixed rate derived from the configured request delay and allows short
// bursts up to the worker count, so a pool that has been idle can start
// quickly without ever exceeding the steady rate.
//
// The retry Policy wraps an operation with exponential backoff and
// optional jitter. Errors marked Permanent stop the retry loop early.
package ratelimit
