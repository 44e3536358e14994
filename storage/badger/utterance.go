package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

// UtteranceRepository implements storage.UtteranceRepository for BadgerDB.
//
// Utterances are keyed by their content-derived ID, which makes AddUtterances
// an idempotent upsert: re-ingesting the same conversation produces the same
// keys and overwrites rather than duplicates.
type UtteranceRepository struct {
	backend *Backend
}

var _ storage.UtteranceRepository = (*UtteranceRepository)(nil)

// NewUtteranceRepository creates a new UtteranceRepository.
func NewUtteranceRepository(backend *Backend) (*UtteranceRepository, error) {
	return &UtteranceRepository{
		backend: backend,
	}, nil
}

// Close releases resources. UtteranceRepository has no resources to release.
func (r *UtteranceRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *UtteranceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddUtterances adds one or more utterances to storage.
func (r *UtteranceRepository) AddUtterances(ctx context.Context, utterances ...*core.Utterance) ([]*core.Utterance, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, utterance := range utterances {
			// Use content-based ID if not set
			if utterance.Id == 0 {
				utterance.Id = core.UtteranceID(
					utterance.ConversationId,
					utterance.StartTime,
					utterance.EndTime,
					utterance.Text,
				)
			}

			key := makeUtteranceKey(utterance.Id)

			// On re-ingest keep the original insertion time, and don't wipe
			// an existing embedding with an empty one.
			old, err := readUtterance(tx, key)
			if err != nil {
				return err
			}
			now := storedNow()
			if old != nil {
				utterance.InsertedAt = old.InsertedAt
				if len(utterance.Vector) == 0 {
					utterance.Vector = old.Vector
				}
			} else {
				utterance.InsertedAt = now
			}
			utterance.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalUtterance(utterance)); err != nil {
				return err
			}

			// Per-conversation index ordered by start time. The index key is
			// derived from the same fields as the content ID, so an upsert
			// lands on the identical key.
			convKey := makeUtteranceConvKey(utterance.ConversationId, utterance.StartTime, utterance.Id)
			if err := tx.Set(convKey, storage.MarshalID(utterance.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return utterances, err
}

// UpdateUtterances updates existing utterances in place.
func (r *UtteranceRepository) UpdateUtterances(ctx context.Context, utterances ...*core.Utterance) ([]*core.Utterance, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, utterance := range utterances {
			key := makeUtteranceKey(utterance.Id)

			old, err := readUtterance(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			utterance.UpdatedAt = storedNow()

			if err := tx.Set(key, storage.MarshalUtterance(utterance)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return utterances, err
}

// GetUtterance retrieves a single utterance by ID.
func (r *UtteranceRepository) GetUtterance(ctx context.Context, id core.ID) (*core.Utterance, error) {
	var result *core.Utterance
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readUtterance(tx, makeUtteranceKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetUtterancesByConversation retrieves all utterances of a conversation
// ordered by start time ascending.
func (r *UtteranceRepository) GetUtterancesByConversation(ctx context.Context, conversationID core.ID) ([]*core.Utterance, error) {
	var results []*core.Utterance
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialUtteranceConvKey(conversationID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			utterance, err := readUtterance(tx, makeUtteranceKey(id))
			if err != nil {
				return err
			}
			if utterance != nil {
				results = append(results, utterance)
			}
		}
		return nil
	}, false)

	return results, err
}

// ListUtterances retrieves up to limit utterances with ID greater than
// afterID, ordered by ID ascending.
func (r *UtteranceRepository) ListUtterances(ctx context.Context, afterID core.ID, limit int) ([]*core.Utterance, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Utterance
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(utterancePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makeUtteranceKey(afterID)
		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			var utterance *core.Utterance
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				utterance, err = storage.UnmarshalUtterance(val)
				return err
			}); err != nil {
				return err
			}
			if utterance == nil || utterance.Id == afterID {
				continue
			}
			results = append(results, utterance)
		}
		return nil
	}, false)

	return results, err
}

// CountUtterances returns the total number of stored utterances.
func (r *UtteranceRepository) CountUtterances(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(utterancePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// DeleteUtterancesByConversation removes all utterances of a conversation.
func (r *UtteranceRepository) DeleteUtterancesByConversation(ctx context.Context, conversationID core.ID) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialUtteranceConvKey(conversationID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var indexKeys [][]byte
		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
			ids = append(ids, id)
		}
		iter.Close()

		for i, id := range ids {
			if err := tx.Delete(makeUtteranceKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ReassignSpeaker re-attributes all utterances of a conversation from one
// speaker to another.
func (r *UtteranceRepository) ReassignSpeaker(ctx context.Context, conversationID, fromSpeaker, toSpeaker core.ID) (int, error) {
	changed := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialUtteranceConvKey(conversationID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		iter.Close()

		now := storedNow()
		for _, id := range ids {
			key := makeUtteranceKey(id)
			utterance, err := readUtterance(tx, key)
			if err != nil {
				return err
			}
			if utterance == nil || utterance.SpeakerId != fromSpeaker {
				continue
			}

			utterance.SpeakerId = toSpeaker
			utterance.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalUtterance(utterance)); err != nil {
				return err
			}
			changed++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return changed, nil
}

// FindSimilar finds utterances whose embedding is similar to the given vector.
func (r *UtteranceRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, filter storage.SearchFilter, limit int) ([]*core.SearchResult, error) {
	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dates := newConversationDateCache(tx, filter)

		prefix := []byte(utterancePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var utterance *core.Utterance
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				utterance, err = storage.UnmarshalUtterance(val)
				return err
			}); err != nil {
				return err
			}
			if utterance == nil || len(utterance.Vector) == 0 {
				continue
			}

			ok, err := dates.matches(filter, utterance)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			// Cosine similarity; vectors are stored normalized
			similarity := core.DotProduct(vector, utterance.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.SearchResult{
					Utterance: utterance,
					Score:     similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchText finds utterances containing all significant words of the query,
// ranked by term frequency.
func (r *UtteranceRepository) SearchText(ctx context.Context, query string, filter storage.SearchFilter, limit int) ([]*core.SearchResult, error) {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return []*core.SearchResult{}, nil
	}

	var results []*core.SearchResult

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		dates := newConversationDateCache(tx, filter)

		prefix := []byte(utterancePrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var utterance *core.Utterance
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				utterance, err = storage.UnmarshalUtterance(val)
				return err
			}); err != nil {
				return err
			}
			if utterance == nil {
				continue
			}

			ok, err := dates.matches(filter, utterance)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}

			rank := textRank(utterance.Text, queryWords)
			if rank > 0 {
				results = append(results, &core.SearchResult{
					Utterance: utterance,
					Score:     rank,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	sortByScore(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// sortByScore orders results by score descending, keeping equal-score results
// in their encounter order (ID order, so runs are reproducible).
func sortByScore(results []*core.SearchResult) {
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
}

// conversationDateCache memoizes conversation date lookups while scanning
// utterances inside one transaction. When the filter has no date bounds the
// cache never touches conversations at all.
type conversationDateCache struct {
	tx     *badger.Txn
	needed bool
	dates  map[core.ID]time.Time
}

func newConversationDateCache(tx *badger.Txn, filter storage.SearchFilter) *conversationDateCache {
	return &conversationDateCache{
		tx:     tx,
		needed: !filter.DateFrom.IsZero() || !filter.DateTo.IsZero(),
		dates:  make(map[core.ID]time.Time),
	}
}

func (c *conversationDateCache) matches(filter storage.SearchFilter, utterance *core.Utterance) (bool, error) {
	var date time.Time
	if c.needed {
		cached, ok := c.dates[utterance.ConversationId]
		if !ok {
			conversation, err := readConversation(c.tx, makeConversationKey(utterance.ConversationId))
			if err != nil {
				return false, err
			}
			if conversation != nil {
				cached = conversation.ConversationDate
			}
			c.dates[utterance.ConversationId] = cached
		}
		date = cached
	}
	return filter.Matches(utterance.SpeakerId, date), nil
}

// readUtterance reads an utterance from the transaction.
func readUtterance(tx *badger.Txn, key []byte) (*core.Utterance, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var utterance *core.Utterance
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		utterance, unmarshalErr = storage.UnmarshalUtterance(val)
		return unmarshalErr
	})
	return utterance, err
}
