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


package core

import (
	"fmt"
	"strings"
)

// ValidateUtterance validates an Utterance according to domain rules.
//
// Validation rules:
//   - Text must not be empty or whitespace-only
//   - StartTime must be strictly before EndTime
//   - ConversationId must be set
//
// NOT validated (populated later or legitimately absent):
//   - Vector (empty until the embedding processor runs)
//   - SpeakerId (0 is a valid "no attribution" value)
//   - ID (derived from content before persistence)
func ValidateUtterance(utterance *Utterance) error {
	if utterance == nil {
		return fmt.Errorf("%w: utterance is nil", ErrInvalidUtterance)
	}

	if strings.TrimSpace(utterance.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrEmptyText)
	}

	if utterance.StartTime >= utterance.EndTime {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrInvalidTimeRange)
	}

	if utterance.ConversationId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidUtterance, ErrMissingConversation)
	}

	return nil
}

// ValidateConversation validates a Conversation according to domain rules.
//
// Validation rules:
//   - Title must not be empty or whitespace-only
//   - Status must be a known value
//
// NOT validated:
//   - MediaURL (conversations imported from pre-computed data have none)
//   - SpeakerIds (may be empty; the pipeline creates speakers implicitly)
//   - ID (0 is valid before the database sequence assigns one)
func ValidateConversation(conversation *Conversation) error {
	if conversation == nil {
		return fmt.Errorf("%w: conversation is nil", ErrInvalidConversation)
	}

	if strings.TrimSpace(conversation.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, ErrEmptyTitle)
	}

	if err := ValidateStatus(conversation.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConversation, err)
	}

	return nil
}

// ValidateSpeaker validates a Speaker according to domain rules.
func ValidateSpeaker(speaker *Speaker) error {
	if speaker == nil {
		return fmt.Errorf("%w: speaker is nil", ErrInvalidSpeaker)
	}

	if strings.TrimSpace(speaker.Name) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSpeaker, ErrEmptyName)
	}

	return nil
}

// ValidateStatus validates that a ConversationStatus has a known value.
func ValidateStatus(status ConversationStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}
