package hindsight

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/hindsight/ai/mock"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) (*Journal, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider()
	journal, err := NewJournal("",
		WithInMemoryStorage(),
		WithProvider(provider),
	)
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal, provider
}

func TestSaveEntryTriggersEmbedding(t *testing.T) {
	journal, _ := newTestJournal(t)
	ctx := context.Background()

	saved, err := journal.SaveEntry(ctx, &core.Entry{
		Problem: "Should we sunset the v1 API?",
		Tags:    []string{"api"},
	})
	require.NoError(t, err)
	require.NotZero(t, saved.Id)

	assert.Eventually(t, func() bool {
		_, err := journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestUpdateEntrySchedulesReembedding(t *testing.T) {
	journal, _ := newTestJournal(t)
	ctx := context.Background()

	saved, err := journal.SaveEntry(ctx, &core.Entry{Problem: "Open decision"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	updated := *saved
	updated.Resolution = "Resolved last week."
	_, err = journal.UpdateEntry(ctx, &updated)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		record, err := journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
		return err == nil && record.EmbeddingText != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteEntryRemovesEmbedding(t *testing.T) {
	journal, _ := newTestJournal(t)
	ctx := context.Background()

	saved, err := journal.SaveEntry(ctx, &core.Entry{Problem: "Ephemeral decision"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, journal.DeleteEntry(ctx, saved.Id))

	_, err = journal.GetEntry(ctx, saved.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestJournalEndToEndSearch(t *testing.T) {
	journal, _ := newTestJournal(t)
	ctx := context.Background()

	saved, err := journal.SaveEntry(ctx, &core.Entry{
		Problem:   "Choosing between kafka and rabbitmq",
		Situation: "Throughput matters more than routing flexibility.",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := journal.EmbeddingRepository().GetEmbedding(ctx, saved.Id)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	searcher, err := journal.NewSearcher()
	require.NoError(t, err)

	// The mock embedder is deterministic: the stored projection and the
	// same query text yield identical vectors only for identical text, so
	// search by keyword membership instead.
	results, err := searcher.Search(ctx, "kafka rabbitmq", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, saved.Id, results[0].EntryId)
}

func TestStartReconcilesMissingEmbeddings(t *testing.T) {
	provider := mock.NewMockProvider()
	journal, err := NewJournal("",
		WithInMemoryStorage(),
		WithProvider(provider),
		WithAutoembedOptions(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	ctx := context.Background()

	// Write directly to the repo, bypassing the orchestrator.
	entries, err := journal.EntryRepository().AddEntries(ctx, &core.Entry{Problem: "Orphaned entry"})
	require.NoError(t, err)

	require.NoError(t, journal.Start(ctx))

	// The startup scan generates in place when the service is available,
	// so the embedding exists as soon as Start returns.
	record, err := journal.EmbeddingRepository().GetEmbedding(ctx, entries[0].Id)
	require.NoError(t, err)
	assert.Equal(t, entries[0].Id, record.EntryId)

	all, err := journal.EmbeddingRepository().GetAllEmbeddings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
