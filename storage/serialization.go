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

package storage

import (
	"github.com/tomasz-trela/backend-thread-weaver/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	var id core.ID
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalConversation serializes a Conversation to bytes.
func MarshalConversation(conversation *core.Conversation) []byte {
	buf := make([]byte, core.ConversationMUS.Size(*conversation))
	core.ConversationMUS.Marshal(*conversation, buf)
	return buf
}

// UnmarshalConversation deserializes a Conversation from bytes.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	conversation, _, err := core.ConversationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// MarshalSpeaker serializes a Speaker to bytes.
func MarshalSpeaker(speaker *core.Speaker) []byte {
	buf := make([]byte, core.SpeakerMUS.Size(*speaker))
	core.SpeakerMUS.Marshal(*speaker, buf)
	return buf
}

// UnmarshalSpeaker deserializes a Speaker from bytes.
func UnmarshalSpeaker(data []byte) (*core.Speaker, error) {
	speaker, _, err := core.SpeakerMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &speaker, nil
}

// MarshalUtterance serializes an Utterance to bytes.
func MarshalUtterance(utterance *core.Utterance) []byte {
	buf := make([]byte, core.UtteranceMUS.Size(*utterance))
	core.UtteranceMUS.Marshal(*utterance, buf)
	return buf
}

// UnmarshalUtterance deserializes an Utterance from bytes.
func UnmarshalUtterance(data []byte) (*core.Utterance, error) {
	utterance, _, err := core.UtteranceMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &utterance, nil
}
