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

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/align"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/media"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

// ImplicitSpeakerSurname is the placeholder surname for speakers created from
// diarization labels the caller supplied no identity for.
const ImplicitSpeakerSurname = "unknown"

// Pipeline runs the full ingestion of one conversation: media download,
// diarization and transcription, alignment, speaker resolution, embedding,
// and a single utterance upsert batch.
type Pipeline struct {
	speakers   storage.SpeakerRepository
	utterances storage.UtteranceRepository
	fetcher    media.Fetcher
	diarizer   ai.Diarizer
	transcrib  ai.Transcriber
	aligner    align.Aligner
	batch      *BatchProcessor

	batchConfig BatchConfig
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithAligner overrides the default aligner.
func WithAligner(aligner align.Aligner) Option {
	return func(p *Pipeline) error {
		p.aligner = aligner
		return nil
	}
}

// WithBatchConfig overrides the embedding batch tunables.
func WithBatchConfig(config BatchConfig) Option {
	return func(p *Pipeline) error {
		p.batchConfig = config
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	speakers storage.SpeakerRepository,
	utterances storage.UtteranceRepository,
	provider ai.AIProvider,
	fetcher media.Fetcher,
	opts ...Option,
) (*Pipeline, error) {
	if speakers == nil {
		return nil, ErrSpeakerRepositoryRequired
	}
	if utterances == nil {
		return nil, ErrUtteranceRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}

	p := &Pipeline{
		speakers:    speakers,
		utterances:  utterances,
		fetcher:     fetcher,
		diarizer:    provider.Diarizer(),
		transcrib:   provider.Transcriber(),
		aligner:     align.New(align.DefaultConfig()),
		batchConfig: DefaultBatchConfig(),
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Create the batch processor after options are applied (so it gets the
	// final config and logger)
	batch, err := NewBatchProcessor(provider.Embedder(), p.batchConfig, p.logger)
	if err != nil {
		return nil, err
	}
	p.batch = batch

	return p, nil
}

// Process ingests one conversation. It is safe to retry: downloads are
// cached, speakers are found before being created, and utterance IDs are
// content-derived so a rerun upserts the same rows.
//
// Process does not change the conversation's status; the caller owns the
// claim lifecycle.
func (p *Pipeline) Process(ctx context.Context, conversation *core.Conversation) error {
	logger := p.logger.With("conversation", conversation.Id)

	audioPath, err := p.fetcher.Fetch(ctx, conversation.MediaURL, conversation.Id)
	if err != nil {
		return fmt.Errorf("fetch media: %w", err)
	}

	// Diarization and transcription are independent calls to the speech
	// service; run them concurrently.
	var (
		wg            sync.WaitGroup
		turns         []core.SpeakerTurn
		transcription *core.Transcription
		diarizeErr    error
		transcribeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		turns, diarizeErr = p.diarizer.Diarize(ctx, audioPath)
	}()
	go func() {
		defer wg.Done()
		transcription, transcribeErr = p.transcrib.Transcribe(ctx, audioPath)
	}()
	wg.Wait()

	if diarizeErr != nil {
		return fmt.Errorf("diarize: %w", diarizeErr)
	}
	if transcribeErr != nil {
		return fmt.Errorf("transcribe: %w", transcribeErr)
	}

	segments, unknown := p.aligner.Align(turns, transcription)
	logger.Info("aligned transcript",
		"segments", len(segments), "unknown", unknown, "turns", len(turns))

	if len(segments) == 0 {
		logger.Warn("no aligned segments, nothing to store")
		return nil
	}

	speakerIds, err := p.resolveSpeakers(ctx, conversation, segments)
	if err != nil {
		return fmt.Errorf("resolve speakers: %w", err)
	}

	utterances, err := p.batch.Process(ctx, conversation.Id, segments, func(label string) core.ID {
		return speakerIds[label]
	})
	if err != nil {
		return fmt.Errorf("embed segments: %w", err)
	}

	if _, err := p.utterances.AddUtterances(ctx, utterances...); err != nil {
		return fmt.Errorf("store utterances: %w", err)
	}

	logger.Info("conversation ingested", "utterances", len(utterances))
	return nil
}

// resolveSpeakers maps every diarization label in the segments to a speaker
// ID. Labels are indexed in order of first appearance and matched against the
// conversation's ordered speaker list; labels beyond that list get an
// implicit speaker record named after the label. The UNKNOWN label is never
// mapped and leaves utterances unattributed.
func (p *Pipeline) resolveSpeakers(ctx context.Context, conversation *core.Conversation, segments []core.AlignedSegment) (map[string]core.ID, error) {
	index := align.BuildIndex(segments)

	resolved := make(map[string]core.ID, index.Len())
	for _, label := range index.Labels() {
		if id := align.Resolve(index.Of(label), conversation.SpeakerIds); id != 0 {
			resolved[label] = id
			continue
		}

		speaker, err := p.speakers.GetOrCreateSpeaker(ctx, label, ImplicitSpeakerSurname)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("implicit speaker for diarization label",
			"label", label, "speaker", speaker.Id)
		resolved[label] = speaker.Id
	}

	return resolved, nil
}

// Release releases resources including the embedding worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.batch != nil {
		p.batch.Release()
	}
}
