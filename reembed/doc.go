// Package reembed regenerates stored entry embeddings in bulk after an
// embedding model switch or a projection template change.
//
// The package supports batch processing of entries, progress tracking,
// and retry logic with exponential backoff. Only stale embeddings are
// regenerated unless forced.
package reembed
