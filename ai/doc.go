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

// Package ai provides abstractions for the AI services used by Thread Weaver.
//
// This package defines interfaces for text embeddings, speech transcription
// and speaker diarization. The core domain and ingestion logic depend on
// these abstractions rather than concrete implementations.
//
// # Design Principles
//
// The package is designed around four key interfaces:
//
//   - Embedder: generates vector embeddings from text
//   - Transcriber: converts a recording into timed transcript segments
//   - Diarizer: segments a recording into speaker turns
//   - AIProvider: aggregates the services for convenient initialization
//
// # Implementation Packages
//
// The ai package includes three implementation sub-packages:
//
//   - ai/openai: embeddings via OpenAI-compatible APIs
//   - ai/speech: transcription and diarization via a whisper-style HTTP service
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewEmbedder, speech.NewClient, NewProvider)
// return INTERFACE types to enforce abstraction and prevent accidental
// coupling to concrete implementations.
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockTranscriber,
// mock.NewMockDiarizer) return CONCRETE types to enable test assertions and
// behavior injection via function fields.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
//	transcription, err := provider.Transcriber().Transcribe(ctx, "talk.mp3")
//	turns, err := provider.Diarizer().Diarize(ctx, "talk.mp3")
package ai
