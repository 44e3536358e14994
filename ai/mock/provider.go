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

package mock

import "github.com/tomasz-trela/backend-thread-weaver/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, transcriber and diarizer instances.
type MockProvider struct {
	embedder    *MockEmbedder
	transcriber *MockTranscriber
	diarizer    *MockDiarizer
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production
// constructors. Use GetMockEmbedder()/GetMockTranscriber()/GetMockDiarizer()
// to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:    NewMockEmbedder(),
		transcriber: NewMockTranscriber(),
		diarizer:    NewMockDiarizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services. This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, transcriber *MockTranscriber, diarizer *MockDiarizer) ai.AIProvider {
	return &MockProvider{
		embedder:    embedder,
		transcriber: transcriber,
		diarizer:    diarizer,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Transcriber returns the mock transcriber.
func (p *MockProvider) Transcriber() ai.Transcriber {
	return p.transcriber
}

// Diarizer returns the mock diarizer.
func (p *MockProvider) Diarizer() ai.Diarizer {
	return p.diarizer
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the underlying mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTranscriber returns the underlying mock transcriber for test assertions.
func (p *MockProvider) GetMockTranscriber() *MockTranscriber {
	return p.transcriber
}

// GetMockDiarizer returns the underlying mock diarizer for test assertions.
func (p *MockProvider) GetMockDiarizer() *MockDiarizer {
	return p.diarizer
}
