package storage

import (
	"testing"
	"time"

	"github.com/poiesic/hindsight/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	entry := &core.Entry{
		Id:           core.ID(42),
		Problem:      "Should we migrate the billing service to the new queue?",
		Situation:    "Current queue drops messages under load spikes.",
		Alternatives: []string{"stay on current queue", "migrate", "build in-house"},
		Resolution:   "Migrated; no drops since.",
		Confidence:   7,
		Tags:         []string{"infra", "billing"},
		IsArchived:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data := MarshalEntry(entry)
	got, err := UnmarshalEntry(data)
	require.NoError(t, err)
	assert.Equal(t, entry, got)
}

func TestEntryRoundTripMinimal(t *testing.T) {
	entry := &core.Entry{
		Id:      core.ID(1),
		Problem: "Pick a database",
	}

	got, err := UnmarshalEntry(MarshalEntry(entry))
	require.NoError(t, err)
	assert.Equal(t, entry.Id, got.Id)
	assert.Equal(t, entry.Problem, got.Problem)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Alternatives)
	assert.True(t, got.CreatedAt.IsZero())
}

func TestEmbeddingRecordRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	record := &core.EmbeddingRecord{
		EntryId:       core.ID(42),
		EmbeddingText: "Problem: Pick a database | Tags: infra",
		Vector:        []float32{0.1, -0.5, 0.25, 1.0},
		ModelName:     "nomic-embed-text",
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	data := MarshalEmbeddingRecord(record)
	got, err := UnmarshalEmbeddingRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestIDRoundTrip(t *testing.T) {
	for _, id := range []core.ID{0, 1, 255, 1 << 40, ^core.ID(0)} {
		got, err := UnmarshalID(MarshalID(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestUnmarshalEntryCorrupt(t *testing.T) {
	_, err := UnmarshalEntry([]byte{0xff})
	assert.Error(t, err)
}
