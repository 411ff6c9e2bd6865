package storage

import (
	"context"

	"github.com/poiesic/hindsight/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// EntryRepository provides operations for managing journal entries.
// It is the primary record store the retrieval subsystem depends on.
type EntryRepository interface {
	Repository
	// AddEntries adds one or more entries to storage.
	// For entries with Id=0, generates new IDs from sequence.
	// Sets CreatedAt if not already set.
	// Returns the entries with generated IDs and timestamps populated.
	AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error)

	// UpdateEntry updates an existing entry and refreshes UpdatedAt.
	// Returns the pre-update copy so callers can detect which fields
	// changed (used for change-triggered re-embedding).
	// Returns ErrNotFound if the entry doesn't exist.
	UpdateEntry(ctx context.Context, entry *core.Entry) (old *core.Entry, err error)

	// DeleteEntries removes entries by their IDs along with associated
	// indices. Returns ErrNotFound if any entry doesn't exist.
	DeleteEntries(ctx context.Context, ids ...core.ID) error

	// GetEntry retrieves a single entry by ID.
	// Returns ErrNotFound if the entry doesn't exist.
	GetEntry(ctx context.Context, id core.ID) (*core.Entry, error)

	// GetEntries retrieves all entries matching the filter, ordered by
	// CreatedAt ascending. A nil filter returns every entry.
	GetEntries(ctx context.Context, filter *core.Filter) ([]*core.Entry, error)

	// SearchKeyword returns IDs of entries whose text contains every
	// significant token of the query, up to limit results. The result is
	// a membership set: callers must not read relevance out of its order.
	SearchKeyword(ctx context.Context, query string, limit int) ([]core.ID, error)
}

// EmbeddingRepository provides keyed persistence of one vector per entry.
type EmbeddingRepository interface {
	Repository
	// SaveEmbedding inserts or overwrites the embedding for its entry.
	// Sets CreatedAt on first write and always refreshes UpdatedAt.
	SaveEmbedding(ctx context.Context, record *core.EmbeddingRecord) error

	// GetEmbedding retrieves the embedding for an entry.
	// Returns ErrNotFound if no embedding is stored.
	GetEmbedding(ctx context.Context, entryID core.ID) (*core.EmbeddingRecord, error)

	// GetAllEmbeddings retrieves every stored embedding.
	GetAllEmbeddings(ctx context.Context) ([]*core.EmbeddingRecord, error)

	// DeleteEmbedding removes the embedding for an entry.
	// Deleting a missing embedding is not an error.
	DeleteEmbedding(ctx context.Context, entryID core.ID) error
}
