package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

func TestUtteranceIterator_ForEach(t *testing.T) {
	repo := setupUtterances(t, 7)

	iterator := NewUtteranceIterator(repo, 3)

	var batches [][]core.ID
	err := iterator.ForEach(context.Background(), func(batch []*core.Utterance) error {
		ids := make([]core.ID, len(batch))
		for i, utterance := range batch {
			ids[i] = utterance.Id
		}
		batches = append(batches, ids)
		return nil
	})
	require.NoError(t, err)

	// 7 utterances in batches of 3: 3 + 3 + 1.
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 3)
	assert.Len(t, batches[1], 3)
	assert.Len(t, batches[2], 1)

	// No utterance appears twice across batches.
	seen := make(map[core.ID]bool)
	for _, batch := range batches {
		for _, id := range batch {
			assert.False(t, seen[id], "utterance %d seen twice", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, 7)
}

func TestUtteranceIterator_ForEach_Empty(t *testing.T) {
	repo := setupUtterances(t, 0)

	iterator := NewUtteranceIterator(repo, 10)

	calls := 0
	err := iterator.ForEach(context.Background(), func(batch []*core.Utterance) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestUtteranceIterator_ForEach_StopsOnError(t *testing.T) {
	repo := setupUtterances(t, 6)

	iterator := NewUtteranceIterator(repo, 2)

	calls := 0
	expectedErr := errors.New("batch failed")
	err := iterator.ForEach(context.Background(), func(batch []*core.Utterance) error {
		calls++
		if calls == 2 {
			return expectedErr
		}
		return nil
	})
	require.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 2, calls)
}

func TestUtteranceIterator_ForEach_ContextCanceled(t *testing.T) {
	repo := setupUtterances(t, 6)

	iterator := NewUtteranceIterator(repo, 2)

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := iterator.ForEach(ctx, func(batch []*core.Utterance) error {
		calls++
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewUtteranceIterator_DefaultsBatchSize(t *testing.T) {
	repo := setupUtterances(t, 0)

	iterator := NewUtteranceIterator(repo, 0)
	assert.Equal(t, DefaultBatchSize, iterator.batchSize)
}
