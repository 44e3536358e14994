package ingestion

import "errors"

var (
	// ErrConversationRepositoryRequired is returned when a conversation repository is not provided.
	ErrConversationRepositoryRequired = errors.New("conversation repository required")

	// ErrSpeakerRepositoryRequired is returned when a speaker repository is not provided.
	ErrSpeakerRepositoryRequired = errors.New("speaker repository required")

	// ErrUtteranceRepositoryRequired is returned when an utterance repository is not provided.
	ErrUtteranceRepositoryRequired = errors.New("utterance repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrFetcherRequired is returned when a media fetcher is not provided.
	ErrFetcherRequired = errors.New("media fetcher required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrPipelineRequired is returned when a pipeline is not provided.
	ErrPipelineRequired = errors.New("pipeline required")
)
