// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// FailurePolicy controls how a batch reacts to per-segment embedding errors.
type FailurePolicy int

const (
	// ContinueOnError keeps going when a segment fails to embed. The
	// utterance is still produced, without a vector, which excludes it from
	// semantic search but not from lexical search.
	ContinueOnError FailurePolicy = iota

	// FailFast aborts the whole batch on the first embedding error. Used by
	// interactive import, where a partial result would be surprising.
	FailFast
)

// DefaultPoolSize is the default embedding concurrency limit.
const DefaultPoolSize = 20

// BatchConfig holds the batch processor tunables.
type BatchConfig struct {
	// PoolSize bounds how many embedding calls run concurrently.
	PoolSize int

	// Policy decides whether a failed segment aborts the batch.
	Policy FailurePolicy

	// MaxSegments caps how many segments one batch embeds. Zero means no
	// cap. The cap keeps chronological order: later segments are dropped.
	MaxSegments int
}

// DefaultBatchConfig returns a BatchConfig with the default tunables.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		PoolSize: DefaultPoolSize,
		Policy:   ContinueOnError,
	}
}

// BatchProcessor turns aligned segments into embedded utterances with a
// bounded-concurrency fan-out over the embedder.
type BatchProcessor struct {
	embedder ai.Embedder
	pool     *ants.Pool
	config   BatchConfig
	logger   *slog.Logger
}

// NewBatchProcessor creates a batch processor. A nil logger falls back to
// slog.Default(); non-positive PoolSize falls back to DefaultPoolSize.
func NewBatchProcessor(embedder ai.Embedder, config BatchConfig, logger *slog.Logger) (*BatchProcessor, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	if config.PoolSize < 1 {
		config.PoolSize = DefaultPoolSize
	}

	pool, err := ants.NewPool(config.PoolSize)
	if err != nil {
		return nil, err
	}

	return &BatchProcessor{
		embedder: embedder,
		pool:     pool,
		config:   config,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// Process builds one utterance per aligned segment, embedding segment texts
// concurrently. speakerFor maps a diarization label to a speaker ID (0 keeps
// the utterance unattributed). The returned slice preserves segment order.
// Under ContinueOnError, segments that fail to embed are logged and excluded
// from the returned batch; under FailFast the whole batch errors.
//
// Utterance IDs are derived from conversation, time range and text, so
// processing the same segments twice yields the same IDs and storage upserts
// instead of duplicating.
func (bp *BatchProcessor) Process(ctx context.Context, conversationID core.ID, segments []core.AlignedSegment, speakerFor func(label string) core.ID) ([]*core.Utterance, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	if bp.config.MaxSegments > 0 && len(segments) > bp.config.MaxSegments {
		bp.logger.Warn("segment cap exceeded, dropping tail",
			"segments", len(segments), "cap", bp.config.MaxSegments)
		segments = segments[:bp.config.MaxSegments]
	}

	utterances := make([]*core.Utterance, len(segments))
	for i, segment := range segments {
		var speakerId core.ID
		if speakerFor != nil {
			speakerId = speakerFor(segment.SpeakerLabel)
		}
		utterances[i] = &core.Utterance{
			Id:             core.UtteranceID(conversationID, segment.Start, segment.End, segment.Text),
			ConversationId: conversationID,
			SpeakerId:      speakerId,
			StartTime:      segment.Start,
			EndTime:        segment.End,
			Text:           segment.Text,
		}
	}

	embedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	embedded := make([]bool, len(utterances))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	recordErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	bp.logger.Debug("embedding segments", "segments", len(utterances))

	for i := range utterances {
		utterance := utterances[i]

		wg.Add(1)
		submitErr := bp.pool.Submit(func() {
			defer wg.Done()

			if embedCtx.Err() != nil {
				return
			}

			vector, err := bp.embedder.EmbedText(embedCtx, utterance.Text)
			if err != nil {
				bp.logger.Error("error embedding segment",
					"utterance", utterance.Id, "err", err)
				recordErr(err)
				if bp.config.Policy == FailFast {
					cancel()
				}
				return
			}
			utterance.Vector = core.NormalizeVector(vector)
			embedded[i] = true
		})
		if submitErr != nil {
			wg.Done()
			recordErr(submitErr)
			if bp.config.Policy == FailFast {
				cancel()
			}
		}
	}

	wg.Wait()

	if bp.config.Policy == FailFast && firstErr != nil {
		return nil, fmt.Errorf("embedding batch failed: %w", firstErr)
	}

	result := make([]*core.Utterance, 0, len(utterances))
	for i, utterance := range utterances {
		if embedded[i] {
			result = append(result, utterance)
		}
	}
	if dropped := len(utterances) - len(result); dropped > 0 {
		bp.logger.Warn("dropping segments that failed to embed",
			"dropped", dropped, "total", len(utterances))
	}

	return result, nil
}

// Release releases the worker pool.
// The processor should not be used after calling Release.
func (bp *BatchProcessor) Release() {
	if bp.pool != nil {
		bp.pool.Release()
	}
}
