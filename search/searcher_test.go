package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomasz-trela/backend-thread-weaver/ai/mock"
	"github.com/tomasz-trela/backend-thread-weaver/core"
	"github.com/tomasz-trela/backend-thread-weaver/storage"
	badgerstore "github.com/tomasz-trela/backend-thread-weaver/storage/badger"
)

type searchFixture struct {
	searcher   *Searcher
	utterances storage.UtteranceRepository
	provider   *mock.MockProvider
	convID     core.ID
}

// newSearchFixture builds a searcher over an in-memory repository seeded with
// a small conversation. Vectors come from the mock embedder, so the query
// embedding of a stored text matches that text's stored vector exactly.
func newSearchFixture(t *testing.T, texts ...string) *searchFixture {
	t.Helper()

	convRepo, _, uttRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	embedder := provider.Embedder()

	ctx := context.Background()
	convs, err := convRepo.AddConversations(ctx, &core.Conversation{
		Title:            "search fixture",
		ConversationDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:           core.StatusCompleted,
	})
	require.NoError(t, err)

	f := &searchFixture{
		utterances: uttRepo,
		provider:   provider,
		convID:     convs[0].Id,
	}

	for i, text := range texts {
		vector, err := embedder.EmbedText(ctx, text)
		require.NoError(t, err)

		_, err = uttRepo.AddUtterances(ctx, &core.Utterance{
			ConversationId: f.convID,
			SpeakerId:      core.ID(i + 1),
			StartTime:      float64(i) * 5,
			EndTime:        float64(i)*5 + 4,
			Text:           text,
			Vector:         vector,
		})
		require.NoError(t, err)
	}

	f.searcher, err = NewSearcher(uttRepo, provider)
	require.NoError(t, err)

	return f
}

func TestNewSearcher(t *testing.T) {
	t.Run("requires utterance repository", func(t *testing.T) {
		_, err := NewSearcher(nil, mock.NewMockProvider())
		assert.ErrorIs(t, err, ErrUtteranceRepositoryRequired)
	})

	t.Run("requires AI provider", func(t *testing.T) {
		_, _, uttRepo, backend, err := badgerstore.NewMemoryRepositories()
		require.NoError(t, err)
		defer backend.Close()

		_, err = NewSearcher(uttRepo, nil)
		assert.ErrorIs(t, err, ErrAIProviderRequired)
	})

	t.Run("config option clamps to defaults", func(t *testing.T) {
		_, _, uttRepo, backend, err := badgerstore.NewMemoryRepositories()
		require.NoError(t, err)
		defer backend.Close()

		s, err := NewSearcher(uttRepo, mock.NewMockProvider(), WithConfig(Config{K: -1, MinFetchLimit: 0}))
		require.NoError(t, err)
		assert.Equal(t, DefaultRRFK, s.config.K)
		assert.Equal(t, DefaultMinFetchLimit, s.config.MinFetchLimit)
	})
}

func TestSearcher_Lexical(t *testing.T) {
	f := newSearchFixture(t,
		"the deployment rollback failed during the deployment window",
		"rollback procedures were reviewed",
		"lunch plans for friday",
	)

	results, err := f.searcher.Lexical(context.Background(), Query{Text: "deployment rollback", Limit: 10})
	require.NoError(t, err)

	// Only the first utterance contains both query words.
	require.Len(t, results, 1)
	assert.Contains(t, results[0].Utterance.Text, "deployment")

	t.Run("empty query", func(t *testing.T) {
		_, err := f.searcher.Lexical(context.Background(), Query{Text: "   "})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestSearcher_Semantic(t *testing.T) {
	f := newSearchFixture(t,
		"kubernetes cluster autoscaling",
		"completely unrelated gardening notes",
	)

	results, err := f.searcher.Semantic(context.Background(), Query{Text: "kubernetes cluster autoscaling", Limit: 10})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "kubernetes cluster autoscaling", results[0].Utterance.Text)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-3)

	t.Run("embedder error propagates", func(t *testing.T) {
		f.provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, fmt.Errorf("embedding service down")
		}
		defer func() { f.provider.GetMockEmbedder().EmbedTextFunc = nil }()

		_, err := f.searcher.Semantic(context.Background(), Query{Text: "anything"})
		assert.Error(t, err)
	})
}

func TestSearcher_Hybrid(t *testing.T) {
	f := newSearchFixture(t,
		"incident review for the payment gateway outage",
		"payment gateway latency dashboards",
		"weekend hiking trip",
	)

	results, err := f.searcher.Hybrid(context.Background(), Query{Text: "payment gateway", Limit: 10})
	require.NoError(t, err)

	// Both payment utterances should surface; the hiking one has no query
	// words so it can only appear via the semantic list.
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Utterance.Text, "payment gateway")

	t.Run("respects limit", func(t *testing.T) {
		results, err := f.searcher.Hybrid(context.Background(), Query{Text: "payment gateway", Limit: 1})
		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("empty query", func(t *testing.T) {
		_, err := f.searcher.Hybrid(context.Background(), Query{Text: ""})
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})
}

func TestSearcher_HybridWithMonitor(t *testing.T) {
	f := newSearchFixture(t,
		"release checklist walkthrough",
		"release notes drafting",
	)

	monitor := &recordingMonitor{}
	results, err := f.searcher.HybridWithMonitor(context.Background(), Query{Text: "release checklist", Limit: 5}, monitor)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, "release checklist", monitor.query)
	assert.True(t, monitor.lexicalSeen)
	assert.True(t, monitor.semanticSeen)
	assert.True(t, monitor.fusionSeen)
	assert.Equal(t, len(results), monitor.finalCount)
}

func TestSearcher_SpeakerFilter(t *testing.T) {
	f := newSearchFixture(t,
		"quarterly budget review",
		"budget overruns in the quarterly report",
	)

	// Fixture assigns SpeakerId i+1 in insertion order.
	results, err := f.searcher.Lexical(context.Background(), Query{
		Text:      "quarterly budget",
		SpeakerId: 2,
		Limit:     10,
	})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, core.ID(2), results[0].Utterance.SpeakerId)
}

type recordingMonitor struct {
	query        string
	lexicalSeen  bool
	semanticSeen bool
	fusionSeen   bool
	finalCount   int
}

func (m *recordingMonitor) Start(query string) { m.query = query }

func (m *recordingMonitor) AfterLexicalSearch(results []*core.SearchResult) { m.lexicalSeen = true }

func (m *recordingMonitor) AfterSemanticSearch(results []*core.SearchResult) { m.semanticSeen = true }

func (m *recordingMonitor) AfterFusion(results []*core.SearchResult) { m.fusionSeen = true }

func (m *recordingMonitor) Finish(results []*core.SearchResult) { m.finalCount = len(results) }
