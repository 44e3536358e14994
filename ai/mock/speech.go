package mock

import (
	"context"
	"fmt"

	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// MockTranscriber is a test double for ai.Transcriber.
// It allows custom behavior injection via function fields.
type MockTranscriber struct {
	// TranscribeFunc is called by Transcribe if set.
	// If nil, uses default deterministic behavior.
	TranscribeFunc func(ctx context.Context, audioPath string) (*core.Transcription, error)

	callCount int
}

// NewMockTranscriber creates a mock transcriber with default deterministic
// behavior. Note: Returns concrete type to allow test assertions.
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{}
}

// Transcribe returns a small fixed transcript derived from the audio path.
func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*core.Transcription, error) {
	m.callCount++

	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}

	return &core.Transcription{
		Language: "en",
		Segments: []core.TranscriptSegment{
			{Start: 0, End: 2, Text: fmt.Sprintf("transcript of %s part one", audioPath)},
			{Start: 2, End: 4, Text: fmt.Sprintf("transcript of %s part two", audioPath)},
		},
	}, nil
}

// CallCount returns the number of times Transcribe was called.
func (m *MockTranscriber) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockTranscriber) Reset() {
	m.callCount = 0
	m.TranscribeFunc = nil
}

// MockDiarizer is a test double for ai.Diarizer.
// It allows custom behavior injection via function fields.
type MockDiarizer struct {
	// DiarizeFunc is called by Diarize if set.
	// If nil, uses default deterministic behavior.
	DiarizeFunc func(ctx context.Context, audioPath string) ([]core.SpeakerTurn, error)

	callCount int
}

// NewMockDiarizer creates a mock diarizer with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockDiarizer() *MockDiarizer {
	return &MockDiarizer{}
}

// Diarize returns two fixed speaker turns covering the default mock transcript.
func (m *MockDiarizer) Diarize(ctx context.Context, audioPath string) ([]core.SpeakerTurn, error) {
	m.callCount++

	if m.DiarizeFunc != nil {
		return m.DiarizeFunc(ctx, audioPath)
	}

	return []core.SpeakerTurn{
		{Start: 0, End: 2, Label: "SPEAKER_00"},
		{Start: 2, End: 4, Label: "SPEAKER_01"},
	}, nil
}

// CallCount returns the number of times Diarize was called.
func (m *MockDiarizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockDiarizer) Reset() {
	m.callCount = 0
	m.DiarizeFunc = nil
}
