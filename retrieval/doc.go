// Package retrieval fans search results out into concurrent page fetches.
//
// The Orchestrator issues one fetch-and-clean task per search result
// link and collects the pages that succeed. Individual page failures
// are dropped, never escalated: an unreachable page simply does not
// appear in the batch. Only caller cancellation fails the batch as a
// whole.
//
// Tasks run on a worker pool sized to the batch, so all links are in
// flight at once unless a caller caps the pool.
package retrieval
