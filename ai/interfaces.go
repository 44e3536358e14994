package ai

import (
	"context"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Transcriber converts an audio recording into timed transcript segments.
// Implementations must be thread-safe for concurrent use.
type Transcriber interface {
	// Transcribe transcribes the audio file at the given path. The returned
	// transcription carries the detected language and the ordered transcript
	// segments with start and end offsets in seconds.
	Transcribe(ctx context.Context, audioPath string) (*core.Transcription, error)
}

// Diarizer segments an audio recording into speaker turns.
// Implementations must be thread-safe for concurrent use.
type Diarizer interface {
	// Diarize returns the speaker turns detected in the audio file at the
	// given path. Labels are diarization-local (e.g. "SPEAKER_00") and carry
	// no identity beyond the single recording.
	Diarize(ctx context.Context, audioPath string) ([]core.SpeakerTurn, error)
}

// AIProvider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages the Embedder,
// Transcriber and Diarizer instances, ensuring they share configuration and
// resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Transcriber returns the speech-to-text service.
	// The returned Transcriber is safe for concurrent use.
	Transcriber() Transcriber

	// Diarizer returns the speaker-segmentation service.
	// The returned Diarizer is safe for concurrent use.
	Diarizer() Diarizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
