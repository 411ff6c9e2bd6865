package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/hindsight/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int) []*core.Entry {
	entries := make([]*core.Entry, n)
	for i := range entries {
		entries[i] = &core.Entry{Id: core.ID(i + 1), Problem: "p"}
	}
	return entries
}

func TestForEachBatches(t *testing.T) {
	it := NewEntryIterator(makeEntries(10), 4)

	var sizes []int
	err := it.ForEach(context.Background(), func(batch []*core.Entry) error {
		sizes = append(sizes, len(batch))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 2}, sizes)
}

func TestForEachEmpty(t *testing.T) {
	it := NewEntryIterator(nil, 4)

	calls := 0
	err := it.ForEach(context.Background(), func(batch []*core.Entry) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestForEachStopsOnError(t *testing.T) {
	it := NewEntryIterator(makeEntries(10), 2)
	wantErr := errors.New("batch failed")

	calls := 0
	err := it.ForEach(context.Background(), func(batch []*core.Entry) error {
		calls++
		if calls == 2 {
			return wantErr
		}
		return nil
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, calls)
}

func TestForEachContextCancelled(t *testing.T) {
	it := NewEntryIterator(makeEntries(10), 2)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := it.ForEach(ctx, func(batch []*core.Entry) error {
		calls++
		cancel()
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDefaultBatchSizeApplied(t *testing.T) {
	it := NewEntryIterator(makeEntries(3), 0)
	assert.Equal(t, DefaultBatchSize, it.batchSize)
}
