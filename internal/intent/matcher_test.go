package intent

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wenjyue84/digiman-sub014/internal/embeddings"
)

const stubDim = 64

// stubEmbedder produces deterministic bag-of-words embeddings so similarity
// reflects token overlap: identical phrases score 1.0, disjoint phrases
// score ~0. No model download, no randomness.
type stubEmbedder struct {
	docErr   error
	queryErr error
}

func (e *stubEmbedder) embed(text string) []float32 {
	vec := make([]float32, stubDim)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		// Reserve a slot for empty input so vectors stay unit length.
		vec[0] = 1
		return vec
	}
	for _, tok := range tokens {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[1+h.Sum32()%(stubDim-1)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func (e *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.docErr != nil {
		return nil, e.docErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	return e.embed(text), nil
}

func newTestMatcher(t *testing.T, examples []IntentExample) (*Matcher, *stubEmbedder) {
	t.Helper()

	embedder := &stubEmbedder{}
	m, err := NewMatcher(embedder, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(context.Background(), examples))
	return m, embedder
}

func testCatalog() []IntentExample {
	return []IntentExample{
		{Intent: "wifi", Examples: []string{"wifi password", "internet password"}},
		{Intent: "pricing", Examples: []string{"how much", "room rate"}},
	}
}

func TestMatchScenario(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())
	ctx := context.Background()

	res, err := m.Match(ctx, "wifi password", 0.5)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "wifi", res.Intent)
	assert.Greater(t, res.Score, 0.9)

	res, err = m.Match(ctx, "xyzzy foobar qux plugh", 0.80)
	require.NoError(t, err)
	assert.Nil(t, res, "gibberish must not match at high threshold")
}

func TestMatchAllOrderingAndRange(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())

	results, err := m.MatchAll(context.Background(), "password rate", 0.0)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score,
			"scores must be non-increasing")
	}
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

func TestThresholdMonotonicity(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())
	ctx := context.Background()

	low, err := m.MatchAll(ctx, "wifi password rate", 0.10)
	require.NoError(t, err)
	high, err := m.MatchAll(ctx, "wifi password rate", 0.60)
	require.NoError(t, err)

	lowIntents := make(map[string]bool)
	for _, r := range low {
		lowIntents[r.Intent] = true
	}
	for _, r := range high {
		assert.True(t, lowIntents[r.Intent],
			"every intent at the higher threshold must appear at the lower one")
	}
}

func TestTieBreakFollowsDeclarationOrder(t *testing.T) {
	catalog := []IntentExample{
		{Intent: "zulu", Examples: []string{"identical phrase"}},
		{Intent: "alpha", Examples: []string{"identical phrase"}},
	}
	// Both intents share the exact training phrase, so scores tie exactly
	// and declaration order must win over any other ordering.
	m, _ := newTestMatcher(t, catalog)

	results, err := m.MatchAll(context.Background(), "identical phrase", 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, "zulu", results[0].Intent)
	assert.Equal(t, "alpha", results[1].Intent)
}

func TestMatchIsHeadOfMatchAll(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())
	ctx := context.Background()

	for _, query := range []string{"wifi password", "room rate please", "xyzzy"} {
		all, err := m.MatchAll(ctx, query, 0.30)
		require.NoError(t, err)
		head, err := m.Match(ctx, query, 0.30)
		require.NoError(t, err)

		if len(all) == 0 {
			assert.Nil(t, head)
		} else {
			require.NotNil(t, head)
			assert.Equal(t, all[0], *head)
		}
	}
}

func TestCrossLingualMatching(t *testing.T) {
	catalog := []IntentExample{
		{Intent: "wifi", Localized: map[string][]string{
			"ms": {"kata laluan wifi"},
		}},
	}
	m, _ := newTestMatcher(t, catalog)

	// The query shares only the "wifi" token with a Malay-tagged example;
	// language tags never gate scoring.
	res, err := m.Match(context.Background(), "wifi", 0.30)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "wifi", res.Intent)
}

func TestEmptyQueryDoesNotMatch(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())

	res, err := m.Match(context.Background(), "", 0.70)
	require.NoError(t, err, "empty input must not fail")
	assert.Nil(t, res, "empty input must not clear a reasonable threshold")
}

func TestDeterministicScores(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())
	ctx := context.Background()

	first, err := m.MatchAll(ctx, "wifi password", 0.0)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.MatchAll(ctx, "wifi password", 0.0)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestQueryBeforeInitialize(t *testing.T) {
	m, err := NewMatcher(&stubEmbedder{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, m.IsReady())
	_, err = m.Match(context.Background(), "wifi password", 0.5)
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = m.MatchAll(context.Background(), "wifi password", 0.5)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestInitializeFailureLeavesMatcherNotReady(t *testing.T) {
	embedder := &stubEmbedder{docErr: embeddings.ErrEmbeddingFailed}
	m, err := NewMatcher(embedder, zap.NewNop())
	require.NoError(t, err)

	err = m.Initialize(context.Background(), testCatalog())
	require.ErrorIs(t, err, embeddings.ErrEmbeddingFailed)
	assert.False(t, m.IsReady())

	_, err = m.Match(context.Background(), "wifi password", 0.5)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestQueryProviderFailureIsNotNoMatch(t *testing.T) {
	m, embedder := newTestMatcher(t, testCatalog())

	embedder.queryErr = errors.New("onnx runtime crashed")
	_, err := m.Match(context.Background(), "wifi password", 0.5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotReady)
}

func TestIntentWithoutExamplesIsSkipped(t *testing.T) {
	catalog := append(testCatalog(),
		IntentExample{Intent: "ghost"},
		IntentExample{Intent: "blank", Examples: []string{"", "   "}},
	)
	m, _ := newTestMatcher(t, catalog)

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalIntents)
	assert.Equal(t, 4, stats.TotalExamples)

	results, err := m.MatchAll(context.Background(), "anything at all", 0.0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "ghost", r.Intent)
		assert.NotEqual(t, "blank", r.Intent)
	}
}

func TestStats(t *testing.T) {
	m, _ := newTestMatcher(t, testCatalog())

	stats := m.Stats()
	assert.Equal(t, 2, stats.TotalIntents)
	assert.Equal(t, 4, stats.TotalExamples)
}

func TestEmptyCatalogNeverMatches(t *testing.T) {
	m, _ := newTestMatcher(t, nil)

	assert.True(t, m.IsReady())
	res, err := m.Match(context.Background(), "hello", 0.0)
	require.NoError(t, err)
	assert.Nil(t, res)
}
