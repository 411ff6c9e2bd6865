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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/projection"
	"github.com/poiesic/hindsight/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of entries to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Force regenerates every entry, including those whose stored
	// embedding already matches the current model and projection.
	Force bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder regenerates stored embeddings across a whole journal,
// typically after a model switch or a projection template change.
type Reembedder struct {
	entryRepo     storage.EntryRepository
	embeddingRepo storage.EmbeddingRepository
	modelName     string
	config        *Config
	progress      io.Writer
	processor     *BatchProcessor
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	entryRepo storage.EntryRepository,
	embeddingRepo storage.EmbeddingRepository,
	embedder ai.Embedder,
	modelName string,
	config *Config,
	progress io.Writer,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(embeddingRepo, embedder, modelName,
		config.MaxRetries, config.RetryDelay)

	return &Reembedder{
		entryRepo:     entryRepo,
		embeddingRepo: embeddingRepo,
		modelName:     modelName,
		config:        config,
		progress:      progress,
		processor:     processor,
	}
}

// Run regenerates embeddings for every stale entry. An embedding is stale
// when it is missing, generated by a different model, generated from an
// older projection version, or no longer matches the entry's projected
// text. With Force set, every entry is regenerated regardless.
func (r *Reembedder) Run(ctx context.Context) error {
	entries, err := r.entryRepo.GetEntries(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to query entries: %w", err)
	}

	stale, err := r.selectStale(ctx, entries)
	if err != nil {
		return err
	}

	if len(stale) == 0 {
		fmt.Fprintf(r.progress, "All %d entries are up to date\n", len(entries))
		return nil
	}

	fmt.Fprintf(r.progress, "Reembedding %d of %d entries (batch size: %d, model: %s)\n",
		len(stale), len(entries), r.config.BatchSize, r.modelName)

	tracker := NewProgressTracker(r.progress, len(stale), r.config.ReportInterval)
	tracker.Start()

	processed := 0
	iterator := NewEntryIterator(stale, r.config.BatchSize)
	err = iterator.ForEach(ctx, func(batch []*core.Entry) error {
		if err := r.processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(batch)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d entries in %v (%.1f entries/sec)\n",
		len(stale), elapsed.Round(time.Second), float64(len(stale))/elapsed.Seconds())

	return nil
}

// selectStale filters entries down to those needing regeneration.
func (r *Reembedder) selectStale(ctx context.Context, entries []*core.Entry) ([]*core.Entry, error) {
	stale := make([]*core.Entry, 0, len(entries))
	for _, entry := range entries {
		text := projection.Project(entry)
		if text == "" {
			continue
		}
		if r.config.Force {
			stale = append(stale, entry)
			continue
		}

		record, err := r.embeddingRepo.GetEmbedding(ctx, entry.Id)
		if err != nil {
			// Missing embedding counts as stale; other failures too,
			// regeneration will overwrite whatever is there.
			stale = append(stale, entry)
			continue
		}
		if record.ModelName != r.modelName ||
			record.Version != projection.Version ||
			record.EmbeddingText != text {
			stale = append(stale, entry)
		}
	}
	return stale, nil
}
