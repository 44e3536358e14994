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

package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of utterances to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of utterances)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reembedder orchestrates the reembedding of all stored utterances, e.g.
// after switching to a different embedding model.
type Reembedder struct {
	repo      storage.UtteranceRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *UtteranceIterator
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(repo storage.UtteranceRepository, embedder ai.Embedder, config *Config, progress io.Writer) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay)
	iterator := NewUtteranceIterator(repo, config.BatchSize)

	return &Reembedder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the reembedding operation. Every stored utterance is
// reembedded with the configured embedder, batch by batch, and progress is
// reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.repo.CountUtterances(ctx)
	if err != nil {
		return fmt.Errorf("failed to count utterances: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No utterances found in database (0 utterances)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d utterances (batch size: %d)\n",
		total, r.config.BatchSize)

	meter := newReembedMeter(r.progress, total, r.config.ReportInterval)

	err = r.iterator.ForEach(ctx, func(utterances []*core.Utterance) error {
		if err := r.processor.Process(ctx, utterances); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		meter.Advance(len(utterances))

		return nil
	})

	if err != nil {
		return err
	}

	elapsed := meter.Done()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d utterances in %v (%.1f utterances/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
