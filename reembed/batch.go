package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/projection"
	"github.com/poiesic/hindsight/storage"
)

// BatchProcessor regenerates embeddings for batches of entries.
type BatchProcessor struct {
	embeddingRepo  storage.EmbeddingRepository
	embedder       ai.Embedder
	modelName      string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(
	embeddingRepo storage.EmbeddingRepository,
	embedder ai.Embedder,
	modelName string,
	maxRetries int,
	retryBaseDelay time.Duration,
) *BatchProcessor {
	return &BatchProcessor{
		embeddingRepo:  embeddingRepo,
		embedder:       embedder,
		modelName:      modelName,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process projects a batch of entries, generates embeddings for them, and
// stores the resulting records. Entries that project to empty text are
// skipped.
func (bp *BatchProcessor) Process(ctx context.Context, entries []*core.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	texts := make([]string, 0, len(entries))
	kept := make([]*core.Entry, 0, len(entries))
	for _, entry := range entries {
		text := projection.Project(entry)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		kept = append(kept, entry)
	}
	if len(kept) == 0 {
		return nil
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)

	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxRetries, err)
	}

	if len(vectors) != len(kept) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(kept), len(vectors))
	}

	for i, entry := range kept {
		record := &core.EmbeddingRecord{
			EntryId:       entry.Id,
			EmbeddingText: texts[i],
			Vector:        vectors[i],
			ModelName:     bp.modelName,
			Version:       projection.Version,
		}
		if err := bp.embeddingRepo.SaveEmbedding(ctx, record); err != nil {
			return fmt.Errorf("failed to store embedding for entry %d: %w", entry.Id, err)
		}
	}

	return nil
}
