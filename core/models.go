package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// UtteranceID derives the identifier of an utterance from the conversation it
// belongs to, its time range, and its text. Re-ingesting the same conversation
// produces the same IDs, so a retried pipeline run upserts instead of
// duplicating rows.
func UtteranceID(conversationID ID, start, end float64, text string) ID {
	return IDFromContent(fmt.Sprintf("%d|%.3f|%.3f|%s", conversationID, start, end, text))
}

// ConversationStatus is the lifecycle state of a Conversation.
type ConversationStatus int

const (
	// StatusPending means the conversation is registered and waiting for the
	// background poller to pick it up.
	StatusPending ConversationStatus = iota + 1
	// StatusProcessing means a poller has claimed the conversation and is
	// running the ingestion pipeline on it.
	StatusProcessing
	// StatusCompleted means all utterances have been persisted.
	StatusCompleted
)

func (s ConversationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Speaker represents a known speaker identity. Speakers are created either
// explicitly before ingestion or implicitly by the pipeline for diarization
// labels with no caller-supplied mapping.
type Speaker struct {
	Id         ID
	Name       string
	Surname    string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Conversation represents one ingested recording and its pipeline state.
// Status is written only by the ingestion poller; metadata fields are written
// by explicit update operations.
type Conversation struct {
	Id               ID
	Title            string
	Description      string
	MediaURL         string    // remote media reference, e.g. a YouTube URL
	ConversationDate time.Time // when the conversation took place (zero if unknown)
	Status           ConversationStatus
	SpeakerIds       []ID   // caller-supplied identities, ordered by diarization label index
	ClaimOwner       string // poller instance holding the processing claim
	ClaimedAt        time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Utterance is one speaker-attributed, time-bounded unit of transcribed
// speech. Vector is empty until the embedding processor runs; a missing
// vector excludes the row from semantic search but not from lexical search.
type Utterance struct {
	Id             ID
	ConversationId ID
	SpeakerId      ID // 0 = no attribution
	StartTime      float64
	EndTime        float64
	Text           string
	Vector         []float32
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// SpeakerTurn is one diarization interval. Labels are opaque and local to a
// single diarization run (e.g. "SPEAKER_00").
type SpeakerTurn struct {
	Start float64
	End   float64
	Label string
}

// TranscriptSegment is one time-stamped piece of transcribed text.
// Text may be empty or whitespace-only and is filtered during alignment.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// Transcription is the output of the transcription service.
type Transcription struct {
	Language string
	Segments []TranscriptSegment
}

// AlignMethod records how a transcript segment was attributed to a speaker.
type AlignMethod int

const (
	// MethodNone means no speaker turn overlapped the segment.
	MethodNone AlignMethod = iota + 1
	// MethodExact means exactly one speaker turn overlapped the segment.
	MethodExact
	// MethodMultiple means several turns overlapped and the best-scoring one
	// was chosen (or rejected as too weak).
	MethodMultiple
)

func (m AlignMethod) String() string {
	switch m {
	case MethodNone:
		return "none"
	case MethodExact:
		return "exact"
	case MethodMultiple:
		return "multiple"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// UnknownSpeaker is the label assigned when no attribution could be made with
// sufficient confidence.
const UnknownSpeaker = "UNKNOWN"

// AlignedSegment is a transcript segment augmented with a best-effort speaker
// attribution and the method that produced it.
type AlignedSegment struct {
	Start        float64
	End          float64
	Text         string
	SpeakerLabel string // diarization label, or UnknownSpeaker
	Method       AlignMethod
}

// SearchResult is an utterance with a relevance score from one of the search
// strategies (term-frequency rank for lexical, similarity for semantic, fused
// RRF score for hybrid).
type SearchResult struct {
	Utterance *Utterance
	Score     float32
}
