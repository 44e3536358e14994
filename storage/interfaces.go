package storage

import (
	"context"
	"math"
	"time"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// NoMinSimilarity disables the similarity floor in FindSimilar: every
// embedded utterance passing the filter is ranked, negative-cosine matches
// included.
const NoMinSimilarity = float32(-math.MaxFloat32)

// SearchFilter narrows search results to a speaker and/or a conversation date
// range. Zero values mean "no constraint": a SpeakerId of 0 matches any
// speaker, zero times leave the corresponding date bound open.
type SearchFilter struct {
	// SpeakerId restricts results to utterances attributed to this speaker.
	SpeakerId core.ID

	// DateFrom restricts results to conversations dated at or after this time.
	DateFrom time.Time

	// DateTo restricts results to conversations dated strictly before this time.
	DateTo time.Time
}

// Matches reports whether an utterance of a conversation with the given date
// passes the filter.
func (f SearchFilter) Matches(speakerId core.ID, conversationDate time.Time) bool {
	if f.SpeakerId != 0 && speakerId != f.SpeakerId {
		return false
	}
	if !f.DateFrom.IsZero() && conversationDate.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && !conversationDate.Before(f.DateTo) {
		return false
	}
	return true
}

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ConversationRepository provides operations for managing conversations and
// their ingestion lifecycle.
type ConversationRepository interface {
	Repository

	// AddConversations adds one or more conversations to storage.
	// For conversations with ID=0, generates new IDs from sequence.
	// Conversations with zero Status are stored as StatusPending.
	// Sets CreatedAt timestamp if not already set.
	// Returns the conversations with generated IDs and timestamps populated.
	AddConversations(ctx context.Context, conversations ...*core.Conversation) ([]*core.Conversation, error)

	// UpdateConversations updates existing conversations.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any conversation doesn't exist.
	UpdateConversations(ctx context.Context, conversations ...*core.Conversation) ([]*core.Conversation, error)

	// DeleteConversations removes conversations by their IDs.
	// Also removes associated indices. Utterances are not touched; callers
	// that need a cascade delete them first.
	// Returns ErrNotFound if any conversation doesn't exist.
	DeleteConversations(ctx context.Context, ids ...core.ID) error

	// GetConversation retrieves a single conversation by ID.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// GetConversations retrieves multiple conversations by their IDs.
	// Returns only the conversations that exist (no error for missing ones).
	GetConversations(ctx context.Context, ids ...core.ID) ([]*core.Conversation, error)

	// GetConversationsByStatus retrieves conversations in the given status,
	// ordered by ID ascending (insertion order).
	GetConversationsByStatus(ctx context.Context, status core.ConversationStatus) ([]*core.Conversation, error)

	// GetAllConversations retrieves every conversation, ordered by ID ascending.
	GetAllConversations(ctx context.Context) ([]*core.Conversation, error)

	// ClaimPending atomically selects one processable conversation, marks it
	// StatusProcessing and records the claim owner and claim time. A
	// conversation is processable when it has a media URL and is
	// StatusPending, or StatusProcessing with a claim older than staleAfter
	// (a crashed worker's leftover). The oldest processable conversation
	// wins. Returns ErrNoPendingConversations when nothing can be claimed.
	ClaimPending(ctx context.Context, owner string, staleAfter time.Duration) (*core.Conversation, error)

	// ReleaseClaim returns a claimed conversation to StatusPending so another
	// worker can retry it. Returns ErrClaimLost if the conversation is no
	// longer claimed by owner.
	ReleaseClaim(ctx context.Context, id core.ID, owner string) error

	// CompleteConversation marks a claimed conversation StatusCompleted and
	// clears the claim. Returns ErrClaimLost if the conversation is no longer
	// claimed by owner.
	CompleteConversation(ctx context.Context, id core.ID, owner string) error
}

// SpeakerRepository provides operations for managing speakers.
type SpeakerRepository interface {
	Repository

	// AddSpeakers adds one or more speakers to storage.
	// For speakers with ID=0, generates new IDs from sequence.
	// Sets InsertedAt timestamp if not already set.
	// Returns the speakers with generated IDs and timestamps populated.
	AddSpeakers(ctx context.Context, speakers ...*core.Speaker) ([]*core.Speaker, error)

	// UpdateSpeakers updates existing speakers.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any speaker doesn't exist.
	UpdateSpeakers(ctx context.Context, speakers ...*core.Speaker) ([]*core.Speaker, error)

	// DeleteSpeakers removes speakers by their IDs.
	// Returns ErrNotFound if any speaker doesn't exist.
	DeleteSpeakers(ctx context.Context, ids ...core.ID) error

	// GetSpeaker retrieves a single speaker by ID.
	// Returns ErrNotFound if the speaker doesn't exist.
	GetSpeaker(ctx context.Context, id core.ID) (*core.Speaker, error)

	// GetSpeakers retrieves multiple speakers by their IDs.
	// Returns only the speakers that exist (no error for missing speakers).
	GetSpeakers(ctx context.Context, ids ...core.ID) ([]*core.Speaker, error)

	// GetAllSpeakers retrieves all speakers, ordered by ID ascending.
	GetAllSpeakers(ctx context.Context) ([]*core.Speaker, error)

	// FindSpeakerByName finds a speaker by the (name, surname) tuple.
	// Returns ErrNotFound if no matching speaker exists.
	FindSpeakerByName(ctx context.Context, name, surname string) (*core.Speaker, error)

	// GetOrCreateSpeaker finds or creates a speaker by name and surname.
	// Thread-safe: handles concurrent creation attempts.
	GetOrCreateSpeaker(ctx context.Context, name, surname string) (*core.Speaker, error)
}

// UtteranceRepository provides operations for managing utterances and
// searching over them.
type UtteranceRepository interface {
	Repository

	// AddUtterances adds one or more utterances to storage.
	// Utterances are keyed by their content-derived ID: re-adding an
	// utterance with the same conversation, time span and text overwrites the
	// previous copy instead of duplicating it.
	// Sets InsertedAt timestamp if not already set.
	// Returns the utterances with IDs and timestamps populated.
	AddUtterances(ctx context.Context, utterances ...*core.Utterance) ([]*core.Utterance, error)

	// UpdateUtterances updates existing utterances in place.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any utterance doesn't exist.
	UpdateUtterances(ctx context.Context, utterances ...*core.Utterance) ([]*core.Utterance, error)

	// GetUtterance retrieves a single utterance by ID.
	// Returns ErrNotFound if the utterance doesn't exist.
	GetUtterance(ctx context.Context, id core.ID) (*core.Utterance, error)

	// GetUtterancesByConversation retrieves all utterances of a conversation
	// ordered by start time ascending.
	GetUtterancesByConversation(ctx context.Context, conversationID core.ID) ([]*core.Utterance, error)

	// ListUtterances retrieves up to limit utterances with ID greater than
	// afterID, ordered by ID. Pass afterID=0 to start from the beginning.
	// Used for paging over the whole corpus.
	ListUtterances(ctx context.Context, afterID core.ID, limit int) ([]*core.Utterance, error)

	// CountUtterances returns the total number of stored utterances.
	CountUtterances(ctx context.Context) (int, error)

	// DeleteUtterancesByConversation removes all utterances of a conversation.
	// Returns the number of utterances deleted.
	DeleteUtterancesByConversation(ctx context.Context, conversationID core.ID) (int, error)

	// ReassignSpeaker re-attributes all utterances of a conversation from one
	// speaker to another. Returns the number of utterances changed.
	ReassignSpeaker(ctx context.Context, conversationID, fromSpeaker, toSpeaker core.ID) (int, error)

	// FindSimilar finds utterances whose embedding is similar to the given
	// vector. Pass NoMinSimilarity to rank without a floor.
	// Returns utterances with similarity >= minSimilarity that pass
	// the filter, up to limit results, ordered by similarity (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, filter SearchFilter, limit int) ([]*core.SearchResult, error)

	// SearchText finds utterances containing all significant words of the
	// query, ranked by term frequency. Returns utterances that pass the
	// filter, up to limit results, ordered by rank (highest first).
	SearchText(ctx context.Context, query string, filter SearchFilter, limit int) ([]*core.SearchResult, error)
}
