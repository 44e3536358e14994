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

import "errors"

// Domain validation errors
var (
	// ErrInvalidUtterance indicates an Utterance failed validation.
	ErrInvalidUtterance = errors.New("invalid utterance")

	// ErrInvalidConversation indicates a Conversation failed validation.
	ErrInvalidConversation = errors.New("invalid conversation")

	// ErrInvalidSpeaker indicates a Speaker failed validation.
	ErrInvalidSpeaker = errors.New("invalid speaker")

	// ErrInvalidTimeRange indicates a start time at or after the end time.
	ErrInvalidTimeRange = errors.New("start time must be before end time")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyTitle indicates the conversation Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyName indicates the speaker Name field is empty.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrMissingConversation indicates an utterance without a conversation reference.
	ErrMissingConversation = errors.New("conversation id is required")

	// ErrInvalidStatus indicates an invalid ConversationStatus value.
	ErrInvalidStatus = errors.New("invalid conversation status")
)
