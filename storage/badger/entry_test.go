package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntryRepo(t *testing.T) storage.EntryRepository {
	t.Helper()
	entryRepo, embeddingRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		entryRepo.Close()
		embeddingRepo.Close()
		backend.Close()
	})
	return entryRepo
}

func TestAddAndGetEntry(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx, &core.Entry{
		Problem: "Should we adopt trunk-based development?",
		Tags:    []string{"process"},
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotZero(t, entries[0].Id)
	assert.False(t, entries[0].CreatedAt.IsZero())

	got, err := repo.GetEntry(ctx, entries[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Should we adopt trunk-based development?", got.Problem)
	assert.Equal(t, []string{"process"}, got.Tags)
}

func TestAddEntriesAssignsDistinctIDs(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx,
		&core.Entry{Problem: "first decision"},
		&core.Entry{Problem: "second decision"},
		&core.Entry{Problem: "third decision"},
	)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	seen := map[core.ID]bool{}
	for _, e := range entries {
		assert.NotZero(t, e.Id)
		assert.False(t, seen[e.Id], "duplicate ID %d", e.Id)
		seen[e.Id] = true
	}
}

func TestAddEntriesValidation(t *testing.T) {
	repo := newTestEntryRepo(t)

	_, err := repo.AddEntries(context.Background(), &core.Entry{Problem: ""})
	assert.ErrorIs(t, err, core.ErrEmptyProblem)
}

func TestGetEntryNotFound(t *testing.T) {
	repo := newTestEntryRepo(t)

	_, err := repo.GetEntry(context.Background(), core.ID(99999))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateEntryReturnsPreviousState(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx, &core.Entry{Problem: "Choose a caching layer"})
	require.NoError(t, err)
	entry := entries[0]
	createdAt := entry.CreatedAt

	updated := *entry
	updated.Resolution = "Went with an embedded cache."
	old, err := repo.UpdateEntry(ctx, &updated)
	require.NoError(t, err)

	assert.Equal(t, "", old.Resolution)
	assert.Equal(t, "Choose a caching layer", old.Problem)

	got, err := repo.GetEntry(ctx, entry.Id)
	require.NoError(t, err)
	assert.Equal(t, "Went with an embedded cache.", got.Resolution)
	assert.Equal(t, createdAt, got.CreatedAt, "CreatedAt must survive updates")
	assert.False(t, got.UpdatedAt.Before(createdAt))
}

func TestUpdateEntryNotFound(t *testing.T) {
	repo := newTestEntryRepo(t)

	_, err := repo.UpdateEntry(context.Background(), &core.Entry{
		Id:      core.ID(12345),
		Problem: "ghost",
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteEntries(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx, &core.Entry{Problem: "Keep or kill the legacy importer"})
	require.NoError(t, err)
	id := entries[0].Id

	require.NoError(t, repo.DeleteEntries(ctx, id))

	_, err = repo.GetEntry(ctx, id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Keyword postings must be gone too.
	ids, err := repo.SearchKeyword(ctx, "legacy importer", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeleteEntriesNotFound(t *testing.T) {
	repo := newTestEntryRepo(t)

	err := repo.DeleteEntries(context.Background(), core.ID(4242))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetEntriesOrderedByCreatedAt(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, problem := range []string{"oldest", "middle", "newest"} {
		_, err := repo.AddEntries(ctx, &core.Entry{
			Problem:   problem,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	got, err := repo.GetEntries(ctx, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "oldest", got[0].Problem)
	assert.Equal(t, "middle", got[1].Problem)
	assert.Equal(t, "newest", got[2].Problem)
}

func TestGetEntriesFiltered(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	_, err := repo.AddEntries(ctx,
		&core.Entry{Problem: "resolved one", Resolution: "done", Tags: []string{"infra"}},
		&core.Entry{Problem: "open one", Tags: []string{"infra"}},
		&core.Entry{Problem: "other topic", Tags: []string{"career"}},
	)
	require.NoError(t, err)

	hasOutcome := true
	got, err := repo.GetEntries(ctx, &core.Filter{HasOutcome: &hasOutcome})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "resolved one", got[0].Problem)

	got, err = repo.GetEntries(ctx, &core.Filter{Tags: []string{"infra"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchKeywordIntersectsTokens(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx,
		&core.Entry{Problem: "database migration rollout plan"},
		&core.Entry{Problem: "database backup schedule"},
		&core.Entry{Problem: "migration of user accounts"},
	)
	require.NoError(t, err)

	// Both tokens must match.
	ids, err := repo.SearchKeyword(ctx, "database migration", 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, entries[0].Id, ids[0])

	// Single token matches both database entries.
	ids, err = repo.SearchKeyword(ctx, "database", 10)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestSearchKeywordCaseAndPunctuation(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx, &core.Entry{
		Problem: "Adopt Kubernetes? (staging first)",
	})
	require.NoError(t, err)

	ids, err := repo.SearchKeyword(ctx, "kubernetes staging", 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, entries[0].Id, ids[0])
}

func TestSearchKeywordStopWordsOnly(t *testing.T) {
	repo := newTestEntryRepo(t)

	ids, err := repo.SearchKeyword(context.Background(), "the and of", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSearchKeywordReflectsUpdates(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	entries, err := repo.AddEntries(ctx, &core.Entry{Problem: "evaluate postgres"})
	require.NoError(t, err)

	updated := *entries[0]
	updated.Problem = "evaluate sqlite"
	_, err = repo.UpdateEntry(ctx, &updated)
	require.NoError(t, err)

	ids, err := repo.SearchKeyword(ctx, "postgres", 10)
	require.NoError(t, err)
	assert.Empty(t, ids, "stale postings must be removed on update")

	ids, err = repo.SearchKeyword(ctx, "sqlite", 10)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, entries[0].Id, ids[0])
}

func TestSearchKeywordLimit(t *testing.T) {
	repo := newTestEntryRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.AddEntries(ctx, &core.Entry{Problem: "recurring standup format"})
		require.NoError(t, err)
	}

	ids, err := repo.SearchKeyword(ctx, "standup", 3)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}
