package core

import (
	"errors"
	"testing"
)

func TestValidateUtterance(t *testing.T) {
	tests := []struct {
		name      string
		utterance *Utterance
		wantErr   error
	}{
		{
			name: "valid utterance",
			utterance: &Utterance{
				Id:             1,
				ConversationId: 1,
				StartTime:      0.5,
				EndTime:        3.2,
				Text:           "Hello world",
			},
			wantErr: nil,
		},
		{
			name: "valid utterance with empty vector",
			utterance: &Utterance{
				Id:             1,
				ConversationId: 1,
				StartTime:      0.5,
				EndTime:        3.2,
				Text:           "Not yet embedded",
				Vector:         nil,
			},
			wantErr: nil,
		},
		{
			name: "valid utterance without speaker",
			utterance: &Utterance{
				Id:             1,
				ConversationId: 1,
				SpeakerId:      0,
				StartTime:      0.5,
				EndTime:        3.2,
				Text:           "Unattributed",
			},
			wantErr: nil,
		},
		{
			name:      "nil utterance",
			utterance: nil,
			wantErr:   ErrInvalidUtterance,
		},
		{
			name: "empty text",
			utterance: &Utterance{
				ConversationId: 1,
				StartTime:      0.5,
				EndTime:        3.2,
				Text:           "",
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "whitespace-only text",
			utterance: &Utterance{
				ConversationId: 1,
				StartTime:      0.5,
				EndTime:        3.2,
				Text:           "   \t ",
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "start equals end",
			utterance: &Utterance{
				ConversationId: 1,
				StartTime:      2.0,
				EndTime:        2.0,
				Text:           "zero duration",
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "start after end",
			utterance: &Utterance{
				ConversationId: 1,
				StartTime:      5.0,
				EndTime:        2.0,
				Text:           "negative duration",
			},
			wantErr: ErrInvalidTimeRange,
		},
		{
			name: "missing conversation",
			utterance: &Utterance{
				StartTime: 0.5,
				EndTime:   3.2,
				Text:      "orphan",
			},
			wantErr: ErrMissingConversation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUtterance(tt.utterance)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUtterance() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUtterance() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConversation(t *testing.T) {
	tests := []struct {
		name         string
		conversation *Conversation
		wantErr      error
	}{
		{
			name: "valid conversation",
			conversation: &Conversation{
				Title:  "Budget debate",
				Status: StatusPending,
			},
			wantErr: nil,
		},
		{
			name: "valid conversation with speakers",
			conversation: &Conversation{
				Title:      "Interview",
				Status:     StatusCompleted,
				SpeakerIds: []ID{1, 2},
			},
			wantErr: nil,
		},
		{
			name:         "nil conversation",
			conversation: nil,
			wantErr:      ErrInvalidConversation,
		},
		{
			name: "empty title",
			conversation: &Conversation{
				Title:  "  ",
				Status: StatusPending,
			},
			wantErr: ErrEmptyTitle,
		},
		{
			name: "unknown status",
			conversation: &Conversation{
				Title:  "Interview",
				Status: ConversationStatus(42),
			},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConversation(tt.conversation)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateConversation() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateConversation() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpeaker(t *testing.T) {
	if err := ValidateSpeaker(&Speaker{Name: "SPEAKER_00", Surname: "unknown"}); err != nil {
		t.Errorf("ValidateSpeaker() unexpected error: %v", err)
	}

	if err := ValidateSpeaker(nil); !errors.Is(err, ErrInvalidSpeaker) {
		t.Errorf("ValidateSpeaker(nil) error = %v, want %v", err, ErrInvalidSpeaker)
	}

	if err := ValidateSpeaker(&Speaker{Name: ""}); !errors.Is(err, ErrEmptyName) {
		t.Errorf("ValidateSpeaker(empty name) error = %v, want %v", err, ErrEmptyName)
	}
}

func TestNormalizeVector(t *testing.T) {
	v := NormalizeVector([]float32{3, 4})
	if len(v) != 2 {
		t.Fatalf("expected length 2, got %d", len(v))
	}
	if diff := v[0] - 0.6; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected 0.6, got %f", v[0])
	}
	if diff := v[1] - 0.8; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("expected 0.8, got %f", v[1])
	}

	zero := NormalizeVector([]float32{0, 0, 0})
	for i, val := range zero {
		if val != 0 {
			t.Errorf("zero vector should stay zero, index %d = %f", i, val)
		}
	}

	if got := NormalizeVector(nil); len(got) != 0 {
		t.Errorf("empty vector should stay empty, got %v", got)
	}
}

func TestDotProduct(t *testing.T) {
	if got := DotProduct([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %f, want 0", got)
	}
	if got := DotProduct([]float32{1, 2, 3}, []float32{4, 5, 6}); got != 32 {
		t.Errorf("got %f, want 32", got)
	}
	// Mismatched lengths compare over the shorter prefix.
	if got := DotProduct([]float32{1, 1}, []float32{2}); got != 2 {
		t.Errorf("got %f, want 2", got)
	}
}
