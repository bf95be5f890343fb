// Package xapi implements the X API v2 client used by the ingestion
// pipeline: a rate-limit-aware transport and the two paginated stream
// fetchers (replies and quotes) for a tracked post.
package xapi
