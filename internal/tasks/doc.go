// package tasks implements the playlist transfer pipeline.
//
// The core abstraction is TransferEngine, which extracts a source playlist id, fetches its
// tracks page by page, resolves each track against the destination catalog, then creates and
// populates the destination playlist. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks
