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

package badger

import "github.com/tomasz-trela/backend-thread-weaver/storage"

// NewMemoryRepositories creates in-memory conversation, speaker and utterance
// repositories for testing. Returns the repositories, the shared backend, and
// error. Caller must close the repositories and the backend when done.
func NewMemoryRepositories() (storage.ConversationRepository, storage.SpeakerRepository, storage.UtteranceRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	conversationRepo, err := NewConversationRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	speakerRepo, err := NewSpeakerRepository(backend)
	if err != nil {
		conversationRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	utteranceRepo, err := NewUtteranceRepository(backend)
	if err != nil {
		speakerRepo.Close()
		conversationRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return conversationRepo, speakerRepo, utteranceRepo, backend, nil
}
