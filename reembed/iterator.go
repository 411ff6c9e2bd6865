// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/hindsight/core"
)

const (
	// DefaultBatchSize is the default number of entries to process in each batch
	DefaultBatchSize = 100
)

// EntryIterator walks a fixed set of entries in batches.
type EntryIterator struct {
	entries   []*core.Entry
	batchSize int
}

// NewEntryIterator creates an iterator over the given entries.
// batchSize: number of entries per batch (must be > 0)
func NewEntryIterator(entries []*core.Entry, batchSize int) *EntryIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &EntryIterator{
		entries:   entries,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch of entries. Iteration stops on the first
// error from fn. Context cancellation is checked between batches.
func (it *EntryIterator) ForEach(ctx context.Context, fn func([]*core.Entry) error) error {
	for i := 0; i < len(it.entries); i += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := i + it.batchSize
		if end > len(it.entries) {
			end = len(it.entries)
		}

		if err := fn(it.entries[i:end]); err != nil {
			return err
		}
	}

	return nil
}
