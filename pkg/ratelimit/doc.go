// Package ratelimit provides client-side request pacing.
//
// The ingestion coordinator uses a token bucket to space successive page
// fetches; server-signalled rate limits (429 responses) are handled
// separately by the transport in pkg/xapi.
package ratelimit
