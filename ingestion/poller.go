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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

const (
	// DefaultPollInterval is how often the poller looks for pending
	// conversations.
	DefaultPollInterval = 60 * time.Second

	// DefaultStaleMultiplier scales the poll interval into the stale-claim
	// threshold: a processing claim older than interval*multiplier is
	// considered abandoned and may be taken over.
	DefaultStaleMultiplier = 10
)

// PollerConfig holds the poller tunables.
type PollerConfig struct {
	// Interval between polling passes.
	Interval time.Duration

	// StaleMultiplier converts Interval into the stale-claim threshold.
	StaleMultiplier int
}

// DefaultPollerConfig returns a PollerConfig with the default tunables.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:        DefaultPollInterval,
		StaleMultiplier: DefaultStaleMultiplier,
	}
}

// Poller claims pending conversations on a recurring schedule and runs the
// ingestion pipeline on each. Every poller instance has a unique owner token,
// so claims survive crash recovery without two live workers processing the
// same conversation.
type Poller struct {
	conversations storage.ConversationRepository
	pipeline      *Pipeline
	owner         string
	config        PollerConfig
	logger        *slog.Logger
}

// PollerOption configures a Poller.
type PollerOption func(*Poller) error

// WithPollerLogger sets a custom logger.
// Default is slog.Default().
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithPollerConfig overrides the default tunables. Non-positive fields fall
// back to defaults.
func WithPollerConfig(config PollerConfig) PollerOption {
	return func(p *Poller) error {
		if config.Interval <= 0 {
			config.Interval = DefaultPollInterval
		}
		if config.StaleMultiplier < 1 {
			config.StaleMultiplier = DefaultStaleMultiplier
		}
		p.config = config
		return nil
	}
}

// NewPoller creates a new poller with a fresh owner token.
func NewPoller(
	conversations storage.ConversationRepository,
	pipeline *Pipeline,
	opts ...PollerOption,
) (*Poller, error) {
	if conversations == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	p := &Poller{
		conversations: conversations,
		pipeline:      pipeline,
		owner:         uuid.NewString(),
		config:        DefaultPollerConfig(),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	p.logger = p.logger.With("owner", p.owner)
	return p, nil
}

// Owner returns the poller's claim-owner token.
func (p *Poller) Owner() string {
	return p.owner
}

// Run polls until the context is cancelled. The first pass happens
// immediately, then every configured interval. Per-conversation failures are
// logged and the conversation is released back to pending; they never stop
// the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "interval", p.config.Interval)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		p.poll(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll claims at most one pending conversation and processes it. A released
// conversation is retried no sooner than the next tick, so a persistently
// failing conversation never hot-loops the worker.
func (p *Poller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	staleAfter := p.config.Interval * time.Duration(p.config.StaleMultiplier)

	conversation, err := p.conversations.ClaimPending(ctx, p.owner, staleAfter)
	if err != nil {
		if !errors.Is(err, storage.ErrNoPendingConversations) {
			p.logger.Error("error claiming conversation", "err", err)
		}
		return
	}

	p.processOne(ctx, conversation)
}

// processOne runs the pipeline on a claimed conversation and settles the
// claim: completed on success, released back to pending on failure or panic.
func (p *Poller) processOne(ctx context.Context, conversation *core.Conversation) {
	logger := p.logger.With("conversation", conversation.Id)
	logger.Info("processing conversation", "title", conversation.Title)

	err := p.runPipeline(ctx, conversation)
	if err != nil {
		logger.Error("conversation processing failed", "err", err)
		if releaseErr := p.conversations.ReleaseClaim(ctx, conversation.Id, p.owner); releaseErr != nil {
			logger.Error("error releasing claim", "err", releaseErr)
		}
		return
	}

	if err := p.conversations.CompleteConversation(ctx, conversation.Id, p.owner); err != nil {
		logger.Error("error completing conversation", "err", err)
		return
	}
	logger.Info("conversation completed")
}

// runPipeline isolates pipeline panics so one bad conversation cannot kill
// the worker.
func (p *Poller) runPipeline(ctx context.Context, conversation *core.Conversation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
	}()
	return p.pipeline.Process(ctx, conversation)
}
