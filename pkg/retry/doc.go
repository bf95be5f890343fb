// Package retry provides retry logic with pluggable backoff strategies.
//
// The transport uses it for connection-level failures only; HTTP status
// handling (429 waits, non-retryable statuses) lives in pkg/xapi.
package retry
