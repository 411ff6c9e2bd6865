package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// The store is a keyed map: one record per entry, writes overwrite.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{backend: backend}
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// SaveEmbedding inserts or overwrites the embedding for its entry.
// CreatedAt is preserved across overwrites; UpdatedAt always refreshes.
func (r *EmbeddingRepository) SaveEmbedding(ctx context.Context, record *core.EmbeddingRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := core.ValidateEmbeddingRecord(record); err != nil {
			return err
		}

		key := makeEmbeddingKey(record.EntryId)

		now := time.Now().UTC()
		existing, err := readEmbedding(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			record.CreatedAt = existing.CreatedAt
		} else if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalEmbeddingRecord(record)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEmbedding retrieves the embedding for an entry.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, entryID core.ID) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEmbedding(tx, makeEmbeddingKey(entryID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllEmbeddings retrieves every stored embedding.
func (r *EmbeddingRepository) GetAllEmbeddings(ctx context.Context) ([]*core.EmbeddingRecord, error) {
	var results []*core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := []byte(embeddingPrefix + ":")
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				continue
			}
			var record *core.EmbeddingRecord
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			}); err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// DeleteEmbedding removes the embedding for an entry.
// Deleting a missing embedding is not an error.
func (r *EmbeddingRepository) DeleteEmbedding(ctx context.Context, entryID core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeEmbeddingKey(entryID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// readEmbedding reads an embedding record from the transaction.
func readEmbedding(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
		return unmarshalErr
	})
	return record, err
}
