package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasz-trela/backend-thread-weaver/ai/mock"
	"github.com/tomasz-trela/backend-thread-weaver/core"
)

func segments(texts ...string) []core.AlignedSegment {
	out := make([]core.AlignedSegment, len(texts))
	for i, text := range texts {
		out[i] = core.AlignedSegment{
			Start:        float64(i) * 2,
			End:          float64(i)*2 + 2,
			Text:         text,
			SpeakerLabel: "SPEAKER_00",
			Method:       core.MethodExact,
		}
	}
	return out
}

func TestNewBatchProcessor(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		_, err := NewBatchProcessor(nil, DefaultBatchConfig(), nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("defaults pool size", func(t *testing.T) {
		bp, err := NewBatchProcessor(mock.NewMockEmbedder(), BatchConfig{}, nil)
		require.NoError(t, err)
		defer bp.Release()
		assert.Equal(t, DefaultPoolSize, bp.config.PoolSize)
	})
}

func TestBatchProcessor_Process(t *testing.T) {
	bp, err := NewBatchProcessor(mock.NewMockEmbedder(), DefaultBatchConfig(), slog.Default())
	require.NoError(t, err)
	defer bp.Release()

	utterances, err := bp.Process(context.Background(), 5, segments("first", "second", "third"), func(label string) core.ID {
		return 9
	})
	require.NoError(t, err)
	require.Len(t, utterances, 3)

	// Order follows the segments regardless of embedding completion order.
	assert.Equal(t, "first", utterances[0].Text)
	assert.Equal(t, "second", utterances[1].Text)
	assert.Equal(t, "third", utterances[2].Text)

	for _, utterance := range utterances {
		assert.Equal(t, core.ID(5), utterance.ConversationId)
		assert.Equal(t, core.ID(9), utterance.SpeakerId)
		assert.NotZero(t, utterance.Id)
		assert.NotEmpty(t, utterance.Vector)
	}

	// IDs are content-derived and stable across runs.
	again, err := bp.Process(context.Background(), 5, segments("first", "second", "third"), nil)
	require.NoError(t, err)
	for i := range again {
		assert.Equal(t, utterances[i].Id, again[i].Id)
	}
}

func TestBatchProcessor_Process_EmptyInput(t *testing.T) {
	bp, err := NewBatchProcessor(mock.NewMockEmbedder(), DefaultBatchConfig(), nil)
	require.NoError(t, err)
	defer bp.Release()

	utterances, err := bp.Process(context.Background(), 1, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, utterances)
}

func TestBatchProcessor_Process_SegmentCap(t *testing.T) {
	config := DefaultBatchConfig()
	config.MaxSegments = 2

	bp, err := NewBatchProcessor(mock.NewMockEmbedder(), config, nil)
	require.NoError(t, err)
	defer bp.Release()

	utterances, err := bp.Process(context.Background(), 1, segments("a", "b", "c", "d"), nil)
	require.NoError(t, err)

	// The cap keeps the chronologically first segments.
	require.Len(t, utterances, 2)
	assert.Equal(t, "a", utterances[0].Text)
	assert.Equal(t, "b", utterances[1].Text)
}

func TestBatchProcessor_Process_ContinueOnError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "poison" {
			return nil, errors.New("embedding failed")
		}
		return []float32{0.1, 0.2, 0.3}, nil
	}

	bp, err := NewBatchProcessor(embedder, DefaultBatchConfig(), nil)
	require.NoError(t, err)
	defer bp.Release()

	utterances, err := bp.Process(context.Background(), 1, segments("fine", "poison", "also fine"), nil)
	require.NoError(t, err)

	// The failed segment is dropped; the survivors keep their order and
	// their embeddings.
	require.Len(t, utterances, 2)
	assert.Equal(t, "fine", utterances[0].Text)
	assert.Equal(t, "also fine", utterances[1].Text)
	assert.NotEmpty(t, utterances[0].Vector)
	assert.NotEmpty(t, utterances[1].Vector)
}

func TestBatchProcessor_Process_FailFast(t *testing.T) {
	var calls atomic.Int32
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		calls.Add(1)
		return nil, errors.New("embedding failed")
	}

	config := DefaultBatchConfig()
	config.Policy = FailFast
	config.PoolSize = 1

	bp, err := NewBatchProcessor(embedder, config, nil)
	require.NoError(t, err)
	defer bp.Release()

	_, err = bp.Process(context.Background(), 1, segments("a", "b", "c"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding batch failed")

	// With a single worker the first failure cancels before later segments
	// reach the embedder.
	assert.Equal(t, int32(1), calls.Load())
}
