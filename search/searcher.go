package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/tomasz-trela/backend-thread-weaver/ai"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
)

const (
	// DefaultRRFK is the reciprocal rank fusion smoothing constant. Larger
	// values flatten the difference between top and deep ranks.
	DefaultRRFK = 60

	// DefaultMinFetchLimit is the floor on how many candidates each strategy
	// fetches before fusion.
	DefaultMinFetchLimit = 40

	// DefaultLimit is the result count used when a query doesn't set one.
	DefaultLimit = 20
)

// Config holds the searcher tunables.
type Config struct {
	// K is the RRF smoothing constant.
	K int

	// MinFetchLimit is the minimum per-strategy candidate pool for hybrid
	// search. Each strategy fetches max(2*limit, MinFetchLimit) candidates
	// so that fusion has genuinely distinct rankings to merge.
	MinFetchLimit int
}

// DefaultConfig returns a Config with the default tunables.
func DefaultConfig() Config {
	return Config{
		K:             DefaultRRFK,
		MinFetchLimit: DefaultMinFetchLimit,
	}
}

// Query describes one search request.
type Query struct {
	// Text is the search text. Must be non-empty.
	Text string

	// Limit caps the number of results. Non-positive means DefaultLimit.
	Limit int

	// SpeakerId restricts results to one speaker. Zero means any.
	SpeakerId core.ID

	// DateFrom/DateTo restrict results to a conversation date range.
	// Zero times leave the corresponding bound open.
	DateFrom time.Time
	DateTo   time.Time
}

func (q Query) filter() storage.SearchFilter {
	return storage.SearchFilter{
		SpeakerId: q.SpeakerId,
		DateFrom:  q.DateFrom,
		DateTo:    q.DateTo,
	}
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Searcher provides lexical, semantic and hybrid search over utterances.
type Searcher struct {
	utterances storage.UtteranceRepository
	embedder   ai.Embedder
	config     Config
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithConfig overrides the default tunables. Non-positive fields fall back
// to defaults.
func WithConfig(config Config) Option {
	return func(s *Searcher) error {
		if config.K <= 0 {
			config.K = DefaultRRFK
		}
		if config.MinFetchLimit <= 0 {
			config.MinFetchLimit = DefaultMinFetchLimit
		}
		s.config = config
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	utterances storage.UtteranceRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if utterances == nil {
		return nil, ErrUtteranceRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		utterances: utterances,
		embedder:   provider.Embedder(),
		config:     DefaultConfig(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Lexical searches utterances by keyword match, ranked by term frequency.
func (s *Searcher) Lexical(ctx context.Context, query Query) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, ErrEmptyQuery
	}
	return s.utterances.SearchText(ctx, query.Text, query.filter(), query.limit())
}

// Semantic searches utterances by embedding similarity.
func (s *Searcher) Semantic(ctx context.Context, query Query) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, ErrEmptyQuery
	}

	embedding, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query.Text, "err", err)
		return nil, err
	}
	embedding = core.NormalizeVector(embedding)

	return s.utterances.FindSimilar(ctx, embedding, storage.NoMinSimilarity, query.filter(), query.limit())
}

// Hybrid runs the lexical and semantic strategies and fuses their rankings
// with reciprocal rank fusion.
func (s *Searcher) Hybrid(ctx context.Context, query Query) ([]*core.SearchResult, error) {
	return s.HybridWithMonitor(ctx, query, nil)
}

// HybridWithMonitor runs hybrid search with monitoring. The monitor receives
// callbacks at each stage of the search process.
func (s *Searcher) HybridWithMonitor(ctx context.Context, query Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, ErrEmptyQuery
	}

	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query.Text)

	limit := query.limit()
	filter := query.filter()

	// Each strategy fetches a deeper candidate pool than the final result
	// count so fusion can promote utterances that rank well on both lists.
	fetchLimit := 2 * limit
	if fetchLimit < s.config.MinFetchLimit {
		fetchLimit = s.config.MinFetchLimit
	}

	lexical, err := s.utterances.SearchText(ctx, query.Text, filter, fetchLimit)
	if err != nil {
		s.logger.Error("lexical search failed", "query", query.Text, "err", err)
		return nil, err
	}
	monitor.AfterLexicalSearch(lexical)

	embedding, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query.Text, "err", err)
		return nil, err
	}
	embedding = core.NormalizeVector(embedding)

	semantic, err := s.utterances.FindSimilar(ctx, embedding, storage.NoMinSimilarity, filter, fetchLimit)
	if err != nil {
		s.logger.Error("semantic search failed", "query", query.Text, "err", err)
		return nil, err
	}
	monitor.AfterSemanticSearch(semantic)

	fused := FuseRRF(s.config.K, lexical, semantic)
	monitor.AfterFusion(fused)

	if len(fused) > limit {
		fused = fused[:limit]
	}
	monitor.Finish(fused)

	return fused, nil
}
