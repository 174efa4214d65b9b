// Package fetch retrieves page HTML over HTTP.
//
// The Fetcher interface is small on purpose: the orchestrator and its tests
// only need "give me the HTML and the final URL after redirects". The HTTP
// implementation layers the user agent, the per-request timeout, and body
// size limits on top of a shared http.Client.
package fetch
