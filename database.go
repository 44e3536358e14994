// Copyright 2025 Tomasz Trela
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package threadweaver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/ai/openai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/ingestion"
	"github.com/tomasz-trela/backend-thread-weaver/media"
	"github.com/tomasz-trela/backend-thread-weaver/reembed"
	"github.com/tomasz-trela/backend-thread-weaver/search"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
	"github.com/tomasz-trela/backend-thread-weaver/storage/badger"
)

// Database bundles the storage backend, the repositories and the AI provider
// into one handle, and builds the higher level components on top of them.
type Database struct {
	backend          *badger.Backend
	conversationRepo storage.ConversationRepository
	speakerRepo      storage.SpeakerRepository
	utteranceRepo    storage.UtteranceRepository
	provider         ai.AIProvider
	fetcher          media.Fetcher
	logger           *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig    *ai.Config
	provider    ai.AIProvider
	fetcher     media.Fetcher
	downloadDir string
}

// WithAIConfig sets the AI service configuration used to build the default
// provider. Ignored when WithProvider is given.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider instead of the OpenAI one.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithFetcher injects a pre-built media fetcher instead of the yt-dlp one.
func WithFetcher(fetcher media.Fetcher) DatabaseOption {
	return func(o *databaseOptions) {
		o.fetcher = fetcher
	}
}

// WithDownloadDir sets where the default fetcher stores downloaded audio.
// Default is "downloads".
func WithDownloadDir(dir string) DatabaseOption {
	return func(o *databaseOptions) {
		o.downloadDir = dir
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig:    ai.DefaultConfig(),
		downloadDir: "downloads",
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	conversationRepo, err := badger.NewConversationRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	speakerRepo, err := badger.NewSpeakerRepository(backend)
	if err != nil {
		conversationRepo.Close()
		backend.Close()
		return nil, err
	}

	utteranceRepo, err := badger.NewUtteranceRepository(backend)
	if err != nil {
		speakerRepo.Close()
		conversationRepo.Close()
		backend.Close()
		return nil, err
	}

	closeRepos := func() {
		utteranceRepo.Close()
		speakerRepo.Close()
		conversationRepo.Close()
		backend.Close()
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			closeRepos()
			return nil, err
		}
	}

	fetcher := options.fetcher
	if fetcher == nil {
		fetcher, err = media.NewExecFetcher(options.downloadDir)
		if err != nil {
			closeRepos()
			return nil, err
		}
	}

	return &Database{
		backend:          backend,
		conversationRepo: conversationRepo,
		speakerRepo:      speakerRepo,
		utteranceRepo:    utteranceRepo,
		provider:         provider,
		fetcher:          fetcher,
		logger:           slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.utteranceRepo.Close(); err != nil {
		db.logger.Error("error closing utterance repository", "err", err)
		return err
	}
	if err := db.speakerRepo.Close(); err != nil {
		db.logger.Error("error closing speaker repository", "err", err)
		return err
	}
	if err := db.conversationRepo.Close(); err != nil {
		db.logger.Error("error closing conversation repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ConversationRepository() storage.ConversationRepository {
	return db.conversationRepo
}

func (db *Database) SpeakerRepository() storage.SpeakerRepository {
	return db.speakerRepo
}

func (db *Database) UtteranceRepository() storage.UtteranceRepository {
	return db.utteranceRepo
}

func (db *Database) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.speakerRepo, db.utteranceRepo, db.provider, db.fetcher, opts...)
}

func (db *Database) NewPoller(opts ...ingestion.PollerOption) (*ingestion.Poller, error) {
	pipeline, err := db.NewPipeline()
	if err != nil {
		return nil, err
	}
	return ingestion.NewPoller(db.conversationRepo, pipeline, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.utteranceRepo, db.provider, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(db.utteranceRepo, db.provider.Embedder(), config, progress)
}

// DeleteConversation removes a conversation and everything stored under it,
// utterances first so a failure never leaves orphaned rows without a parent.
func (db *Database) DeleteConversation(ctx context.Context, id core.ID) error {
	deleted, err := db.utteranceRepo.DeleteUtterancesByConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("delete utterances: %w", err)
	}
	if deleted > 0 {
		db.logger.Info("deleted conversation utterances", "conversation", id, "utterances", deleted)
	}

	return db.conversationRepo.DeleteConversations(ctx, id)
}
