package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

// ConversationRepository implements storage.ConversationRepository for BadgerDB.
type ConversationRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ConversationRepository = (*ConversationRepository)(nil)

// NewConversationRepository creates a new ConversationRepository.
func NewConversationRepository(backend *Backend) (*ConversationRepository, error) {
	idSeq, err := backend.GetSequence(conversationIDSeq)
	if err != nil {
		return nil, err
	}

	return &ConversationRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ConversationRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ConversationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddConversations adds one or more conversations to storage.
func (r *ConversationRepository) AddConversations(ctx context.Context, conversations ...*core.Conversation) ([]*core.Conversation, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, conversation := range conversations {
			// Always generate new ID from sequence
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			conversation.Id = core.ID(nextID)

			if conversation.Status == 0 {
				conversation.Status = core.StatusPending
			}
			conversation.CreatedAt = storedNow()
			conversation.UpdatedAt = conversation.CreatedAt

			if err := writeConversation(tx, conversation); err != nil {
				return err
			}

			// Status index
			statusKey := makeConversationStatusKey(conversation.Status, conversation.Id)
			if err := tx.Set(statusKey, storage.MarshalID(conversation.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return conversations, err
}

// UpdateConversations updates existing conversations.
func (r *ConversationRepository) UpdateConversations(ctx context.Context, conversations ...*core.Conversation) ([]*core.Conversation, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, conversation := range conversations {
			old, err := readConversation(tx, makeConversationKey(conversation.Id))
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			conversation.UpdatedAt = storedNow()

			if err := writeConversation(tx, conversation); err != nil {
				return err
			}

			// Move status index entry if the status changed
			if old.Status != conversation.Status {
				if err := tx.Delete(makeConversationStatusKey(old.Status, old.Id)); err != nil {
					return err
				}
				statusKey := makeConversationStatusKey(conversation.Status, conversation.Id)
				if err := tx.Set(statusKey, storage.MarshalID(conversation.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return conversations, err
}

// DeleteConversations removes conversations by their IDs.
func (r *ConversationRepository) DeleteConversations(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeConversationKey(id)

			conversation, err := readConversation(tx, key)
			if err != nil {
				return err
			}
			if conversation == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeConversationStatusKey(conversation.Status, id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetConversation retrieves a single conversation by ID.
func (r *ConversationRepository) GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	var result *core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readConversation(tx, makeConversationKey(id))
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

// GetConversations retrieves multiple conversations by their IDs.
func (r *ConversationRepository) GetConversations(ctx context.Context, ids ...core.ID) ([]*core.Conversation, error) {
	var result []*core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			conversation, err := readConversation(tx, makeConversationKey(id))
			if err != nil {
				return err
			}
			if conversation != nil {
				result = append(result, conversation)
			}
		}
		return nil
	}, false)
	return result, err
}

// GetConversationsByStatus retrieves conversations in the given status,
// ordered by ID ascending.
func (r *ConversationRepository) GetConversationsByStatus(ctx context.Context, status core.ConversationStatus) ([]*core.Conversation, error) {
	var results []*core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialConversationStatusKey(status)
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

			conversation, err := readConversation(tx, makeConversationKey(id))
			if err != nil {
				return err
			}
			if conversation != nil {
				results = append(results, conversation)
			}
		}
		return nil
	}, false)

	return results, err
}

// GetAllConversations retrieves every conversation, ordered by ID ascending.
func (r *ConversationRepository) GetAllConversations(ctx context.Context) ([]*core.Conversation, error) {
	var results []*core.Conversation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(conversationPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var conversation *core.Conversation
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				conversation, err = storage.UnmarshalConversation(val)
				return err
			}); err != nil {
				return err
			}
			if conversation != nil {
				results = append(results, conversation)
			}
		}
		return nil
	}, false)

	return results, err
}

// ClaimPending atomically selects one processable conversation and marks it
// as being processed by owner. Pending conversations are claimed first, in
// insertion order; failing that, the oldest stale processing claim is taken
// over. The read-check-write happens in a single BadgerDB transaction, so two
// concurrent workers cannot claim the same conversation: the losing commit
// fails with a conflict.
func (r *ConversationRepository) ClaimPending(ctx context.Context, owner string, staleAfter time.Duration) (*core.Conversation, error) {
	var claimed *core.Conversation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		candidate, err := r.findClaimable(tx, staleAfter)
		if err != nil {
			return err
		}
		if candidate == nil {
			return storage.ErrNoPendingConversations
		}

		oldStatus := candidate.Status
		now := storedNow()
		candidate.Status = core.StatusProcessing
		candidate.ClaimOwner = owner
		candidate.ClaimedAt = now
		candidate.UpdatedAt = now

		if err := writeConversation(tx, candidate); err != nil {
			return err
		}
		if oldStatus != core.StatusProcessing {
			if err := tx.Delete(makeConversationStatusKey(oldStatus, candidate.Id)); err != nil {
				return err
			}
			statusKey := makeConversationStatusKey(core.StatusProcessing, candidate.Id)
			if err := tx.Set(statusKey, storage.MarshalID(candidate.Id)); err != nil {
				return err
			}
		}

		claimed = candidate
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// findClaimable returns the first pending conversation with a remote-media
// reference, or the oldest such processing conversation whose claim has gone
// stale, or nil. Conversations without a media URL (direct imports) have
// nothing for the worker to fetch and are never claimed.
func (r *ConversationRepository) findClaimable(tx *badger.Txn, staleAfter time.Duration) (*core.Conversation, error) {
	pending, err := r.firstFetchablePending(tx)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return pending, nil
	}

	if staleAfter <= 0 {
		return nil, nil
	}
	cutoff := time.Now().UTC().Add(-staleAfter)

	prefix := makePartialConversationStatusKey(core.StatusProcessing)
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
			return nil, err
		}

		conversation, err := readConversation(tx, makeConversationKey(id))
		if err != nil {
			return nil, err
		}
		if conversation != nil && conversation.MediaURL != "" && conversation.ClaimedAt.Before(cutoff) {
			return conversation, nil
		}
	}
	return nil, nil
}

// firstFetchablePending returns the lowest-ID pending conversation that
// carries a media URL, skipping any that have nothing to download.
func (r *ConversationRepository) firstFetchablePending(tx *badger.Txn) (*core.Conversation, error) {
	prefix := makePartialConversationStatusKey(core.StatusPending)
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
			return nil, err
		}
		conversation, err := readConversation(tx, makeConversationKey(id))
		if err != nil {
			return nil, err
		}
		if conversation != nil && conversation.MediaURL != "" {
			return conversation, nil
		}
	}
	return nil, nil
}

// ReleaseClaim returns a claimed conversation to StatusPending.
func (r *ConversationRepository) ReleaseClaim(ctx context.Context, id core.ID, owner string) error {
	return r.transitionClaim(id, owner, core.StatusPending)
}

// CompleteConversation marks a claimed conversation StatusCompleted.
func (r *ConversationRepository) CompleteConversation(ctx context.Context, id core.ID, owner string) error {
	return r.transitionClaim(id, owner, core.StatusCompleted)
}

// transitionClaim moves a conversation claimed by owner out of
// StatusProcessing into the target status and clears the claim fields.
func (r *ConversationRepository) transitionClaim(id core.ID, owner string, target core.ConversationStatus) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		conversation, err := readConversation(tx, makeConversationKey(id))
		if err != nil {
			return err
		}
		if conversation == nil {
			return storage.ErrNotFound
		}
		if conversation.Status != core.StatusProcessing || conversation.ClaimOwner != owner {
			return storage.ErrClaimLost
		}

		conversation.Status = target
		conversation.ClaimOwner = ""
		conversation.ClaimedAt = time.Time{}
		conversation.UpdatedAt = storedNow()

		if err := writeConversation(tx, conversation); err != nil {
			return err
		}
		if err := tx.Delete(makeConversationStatusKey(core.StatusProcessing, id)); err != nil {
			return err
		}
		statusKey := makeConversationStatusKey(target, id)
		if err := tx.Set(statusKey, storage.MarshalID(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Helper methods

// readConversation reads a conversation from the transaction.
func readConversation(tx *badger.Txn, key []byte) (*core.Conversation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var conversation *core.Conversation
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		conversation, unmarshalErr = storage.UnmarshalConversation(val)
		return unmarshalErr
	})
	return conversation, err
}

// writeConversation stores a conversation's primary record.
func writeConversation(tx *badger.Txn, conversation *core.Conversation) error {
	key := makeConversationKey(conversation.Id)
	return tx.Set(key, storage.MarshalConversation(conversation))
}
