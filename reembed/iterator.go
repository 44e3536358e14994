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

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

const (
	// DefaultBatchSize is the default number of utterances to fetch in each batch
	DefaultBatchSize = 100
)

// UtteranceIterator iterates over all stored utterances in ID order, one
// batch at a time. Batches are fetched with keyset pagination, so the whole
// corpus never has to fit in memory.
type UtteranceIterator struct {
	repo      storage.UtteranceRepository
	batchSize int
}

// NewUtteranceIterator creates a new utterance iterator.
// batchSize: number of utterances to fetch in each batch (must be > 0)
func NewUtteranceIterator(repo storage.UtteranceRepository, batchSize int) *UtteranceIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &UtteranceIterator{
		repo:      repo,
		batchSize: batchSize,
	}
}

// ForEach iterates over all utterances, calling fn for each batch.
// Iteration stops on the first error from fn or when all utterances are
// processed. Context cancellation is checked between batches.
func (it *UtteranceIterator) ForEach(ctx context.Context, fn func([]*core.Utterance) error) error {
	var afterID core.ID

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := it.repo.ListUtterances(ctx, afterID, it.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		if err := fn(batch); err != nil {
			return err
		}

		afterID = batch[len(batch)-1].Id
	}
}
