// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"log/slog"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/ai/speech"
)

// Provider implements ai.AIProvider using OpenAI-compatible services for
// embeddings and a whisper-style speech service for transcription and
// diarization.
type Provider struct {
	config      *ai.Config
	embedder    *Embedder
	transcriber ai.Transcriber
	diarizer    ai.Diarizer
	logger      *slog.Logger
}

// NewProvider creates a new AI provider. The config is validated and
// normalized before use.
//
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to implementation details.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(config)
	if err != nil {
		return nil, err
	}

	transcriber, err := speech.NewTranscriber(config)
	if err != nil {
		return nil, err
	}

	diarizer, err := speech.NewDiarizer(config)
	if err != nil {
		return nil, err
	}

	return &Provider{
		config:      config,
		embedder:    embedder,
		transcriber: transcriber,
		diarizer:    diarizer,
		logger:      slog.Default().With("component", "openai-provider"),
	}, nil
}

// Embedder returns the text embedding service.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Transcriber returns the speech-to-text service.
func (p *Provider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Diarizer returns the speaker-segmentation service.
func (p *Provider) Diarizer() ai.Diarizer {
	return p.diarizer
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
