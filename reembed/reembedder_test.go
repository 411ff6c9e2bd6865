package reembed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/poiesic/hindsight/ai/mock"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/projection"
	"github.com/poiesic/hindsight/storage"
	"github.com/poiesic/hindsight/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "mock-embed"

func newRepos(t *testing.T) (storage.EntryRepository, storage.EmbeddingRepository) {
	t.Helper()
	entryRepo, embeddingRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		entryRepo.Close()
		embeddingRepo.Close()
		backend.Close()
	})
	return entryRepo, embeddingRepo
}

func newReembedder(entryRepo storage.EntryRepository, embeddingRepo storage.EmbeddingRepository, force bool) *Reembedder {
	config := DefaultConfig()
	config.RetryDelay = time.Millisecond
	config.Force = force
	return NewReembedder(entryRepo, embeddingRepo, mock.NewMockEmbedder(), testModel, config, &bytes.Buffer{})
}

func TestRunEmbedsMissing(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	ctx := context.Background()

	entries, err := entryRepo.AddEntries(ctx,
		&core.Entry{Problem: "first decision"},
		&core.Entry{Problem: "second decision"},
	)
	require.NoError(t, err)

	require.NoError(t, newReembedder(entryRepo, embeddingRepo, false).Run(ctx))

	for _, entry := range entries {
		record, err := embeddingRepo.GetEmbedding(ctx, entry.Id)
		require.NoError(t, err)
		assert.Equal(t, testModel, record.ModelName)
		assert.Equal(t, projection.Version, record.Version)
		assert.Equal(t, projection.Project(entry), record.EmbeddingText)
	}
}

func TestRunSkipsCurrentEmbeddings(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	ctx := context.Background()

	entries, err := entryRepo.AddEntries(ctx, &core.Entry{Problem: "settled decision"})
	require.NoError(t, err)
	entry := entries[0]

	require.NoError(t, embeddingRepo.SaveEmbedding(ctx, &core.EmbeddingRecord{
		EntryId:       entry.Id,
		EmbeddingText: projection.Project(entry),
		Vector:        []float32{1, 2, 3},
		ModelName:     testModel,
		Version:       projection.Version,
	}))

	require.NoError(t, newReembedder(entryRepo, embeddingRepo, false).Run(ctx))

	record, err := embeddingRepo.GetEmbedding(ctx, entry.Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, record.Vector, "current embedding untouched")
}

func TestRunRegeneratesModelMismatch(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	ctx := context.Background()

	entries, err := entryRepo.AddEntries(ctx, &core.Entry{Problem: "model switch case"})
	require.NoError(t, err)
	entry := entries[0]

	require.NoError(t, embeddingRepo.SaveEmbedding(ctx, &core.EmbeddingRecord{
		EntryId:       entry.Id,
		EmbeddingText: projection.Project(entry),
		Vector:        []float32{1},
		ModelName:     "older-model",
		Version:       projection.Version,
	}))

	require.NoError(t, newReembedder(entryRepo, embeddingRepo, false).Run(ctx))

	record, err := embeddingRepo.GetEmbedding(ctx, entry.Id)
	require.NoError(t, err)
	assert.Equal(t, testModel, record.ModelName)
	assert.NotEqual(t, []float32{1}, record.Vector)
}

func TestRunRegeneratesTextMismatch(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	ctx := context.Background()

	entries, err := entryRepo.AddEntries(ctx, &core.Entry{Problem: "edited decision"})
	require.NoError(t, err)
	entry := entries[0]

	require.NoError(t, embeddingRepo.SaveEmbedding(ctx, &core.EmbeddingRecord{
		EntryId:       entry.Id,
		EmbeddingText: "Problem: stale projected text",
		Vector:        []float32{1},
		ModelName:     testModel,
		Version:       projection.Version,
	}))

	require.NoError(t, newReembedder(entryRepo, embeddingRepo, false).Run(ctx))

	record, err := embeddingRepo.GetEmbedding(ctx, entry.Id)
	require.NoError(t, err)
	assert.Equal(t, projection.Project(entry), record.EmbeddingText)
}

func TestRunForceRegeneratesEverything(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	ctx := context.Background()

	entries, err := entryRepo.AddEntries(ctx, &core.Entry{Problem: "already current"})
	require.NoError(t, err)
	entry := entries[0]

	require.NoError(t, embeddingRepo.SaveEmbedding(ctx, &core.EmbeddingRecord{
		EntryId:       entry.Id,
		EmbeddingText: projection.Project(entry),
		Vector:        []float32{9, 9, 9},
		ModelName:     testModel,
		Version:       projection.Version,
	}))

	require.NoError(t, newReembedder(entryRepo, embeddingRepo, true).Run(ctx))

	record, err := embeddingRepo.GetEmbedding(ctx, entry.Id)
	require.NoError(t, err)
	assert.NotEqual(t, []float32{9, 9, 9}, record.Vector, "force overwrites current embeddings")
}

func TestRunEmptyJournal(t *testing.T) {
	entryRepo, embeddingRepo := newRepos(t)
	var out bytes.Buffer

	r := NewReembedder(entryRepo, embeddingRepo, mock.NewMockEmbedder(), testModel, nil, &out)
	require.NoError(t, r.Run(context.Background()))
	assert.Contains(t, out.String(), "up to date")
}
