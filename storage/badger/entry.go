package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/storage"
)

// EntryRepository implements storage.EntryRepository for BadgerDB.
type EntryRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EntryRepository = (*EntryRepository)(nil)

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(backend *Backend) (*EntryRepository, error) {
	idSeq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		return nil, err
	}

	return &EntryRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EntryRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *EntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddEntries adds one or more entries to storage.
func (r *EntryRepository) AddEntries(ctx context.Context, entries ...*core.Entry) ([]*core.Entry, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, entry := range entries {
			if err := core.ValidateEntry(entry); err != nil {
				return err
			}

			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			entry.Id = core.ID(nextID)

			if entry.CreatedAt.IsZero() {
				entry.CreatedAt = time.Now().UTC()
			}
			entry.UpdatedAt = entry.CreatedAt

			// Store primary record
			key := makeEntryKey(entry.Id)
			value := storage.MarshalEntry(entry)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update date index
			dateKey := makeEntryDateKey(entry.CreatedAt, entry.Id)
			if err := tx.Set(dateKey, storage.MarshalID(entry.Id)); err != nil {
				return err
			}

			// Update keyword posting index
			if err := setWordIndex(tx, entry.Id, entryTokenIDs(entry)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return entries, err
}

// UpdateEntry updates an existing entry and returns its pre-update copy.
func (r *EntryRepository) UpdateEntry(ctx context.Context, entry *core.Entry) (*core.Entry, error) {
	var old *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := core.ValidateEntry(entry); err != nil {
			return err
		}

		key := makeEntryKey(entry.Id)
		var err error
		old, err = readEntry(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		entry.CreatedAt = old.CreatedAt
		entry.UpdatedAt = time.Now().UTC()

		value := storage.MarshalEntry(entry)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		// Update keyword posting index if tokens changed
		oldTokens := entryTokenIDs(old)
		newTokens := entryTokenIDs(entry)
		if !tokenIDsEqual(oldTokens, newTokens) {
			if err := deleteWordIndex(tx, entry.Id, oldTokens); err != nil {
				return err
			}
			if err := setWordIndex(tx, entry.Id, newTokens); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return old, nil
}

// DeleteEntries removes entries by their IDs.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeEntryKey(id)

			// Read record to get metadata for index cleanup
			entry, err := readEntry(tx, key)
			if err != nil {
				return err
			}
			if entry == nil {
				return storage.ErrNotFound
			}

			// Delete from date index
			dateKey := makeEntryDateKey(entry.CreatedAt, entry.Id)
			if err := tx.Delete(dateKey); err != nil {
				return err
			}

			// Delete keyword postings
			if err := deleteWordIndex(tx, entry.Id, entryTokenIDs(entry)); err != nil {
				return err
			}

			// Delete primary record
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves a single entry by ID.
func (r *EntryRepository) GetEntry(ctx context.Context, id core.ID) (*core.Entry, error) {
	var result *core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEntryKey(id)
		var err error
		result, err = readEntry(tx, key)
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

// GetEntries retrieves all entries matching the filter, ordered by
// CreatedAt ascending via the date index.
func (r *EntryRepository) GetEntries(ctx context.Context, filter *core.Filter) ([]*core.Entry, error) {
	var results []*core.Entry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryDatePrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entryID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				entryID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			entry, err := readEntry(tx, makeEntryKey(entryID))
			if err != nil {
				return err
			}
			if entry == nil {
				continue
			}
			if filter.Matches(entry) {
				results = append(results, entry)
			}
		}
		return nil
	}, false)

	return results, err
}

// SearchKeyword returns IDs of entries containing every significant token
// of the query, up to limit results. Tokens are intersected across posting
// lists; a query with no significant tokens matches nothing.
func (r *EntryRepository) SearchKeyword(ctx context.Context, query string, limit int) ([]core.ID, error) {
	tokens := tokenizeAndFilter(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	var matched map[core.ID]bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, token := range tokens {
			postings, err := readPostings(tx, core.IDFromContent(token))
			if err != nil {
				return err
			}
			if matched == nil {
				matched = postings
				continue
			}
			for id := range matched {
				if !postings[id] {
					delete(matched, id)
				}
			}
			if len(matched) == 0 {
				return nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, 0, len(matched))
	for id := range matched {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Helper methods

// readEntry reads an entry from the transaction.
func readEntry(tx *badger.Txn, key []byte) (*core.Entry, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entry *core.Entry
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		entry, unmarshalErr = storage.UnmarshalEntry(val)
		return unmarshalErr
	})
	return entry, err
}

// readPostings reads the posting set for one token.
func readPostings(tx *badger.Txn, tokenID core.ID) (map[core.ID]bool, error) {
	postings := make(map[core.ID]bool)
	startKey := makePartialEntryWordKey(tokenID)

	iter := tx.NewIterator(badger.DefaultIteratorOptions)
	defer iter.Close()

	for iter.Seek(startKey); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if len(key) < len(startKey) || slices.Compare(key[:len(startKey)], startKey) != 0 {
			break
		}

		var entryID core.ID
		if err := iter.Item().Value(func(val []byte) error {
			var err error
			entryID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}
		postings[entryID] = true
	}
	return postings, nil
}

// setWordIndex adds posting entries for every token of an entry.
func setWordIndex(tx *badger.Txn, entryID core.ID, tokenIDs []core.ID) error {
	value := storage.MarshalID(entryID)
	for _, tokenID := range tokenIDs {
		if err := tx.Set(makeEntryWordKey(tokenID, entryID), value); err != nil {
			return err
		}
	}
	return nil
}

// deleteWordIndex removes posting entries for every token of an entry.
func deleteWordIndex(tx *badger.Txn, entryID core.ID, tokenIDs []core.ID) error {
	for _, tokenID := range tokenIDs {
		if err := tx.Delete(makeEntryWordKey(tokenID, entryID)); err != nil {
			return err
		}
	}
	return nil
}
