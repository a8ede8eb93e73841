package intent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/wenjyue84/digiman-sub014/internal/embeddings"
)

// ErrNotReady is returned for queries before initialization completed, or
// after a failed initialization. It is distinct from "no match": a nil
// result with a nil error means nothing cleared the threshold.
var ErrNotReady = errors.New("matcher not initialized")

// DefaultThreshold is the minimum similarity used when callers do not pass
// an explicit threshold. Callers routinely override it: exploratory
// classification works well around 0.30, gating an automated send wants 0.80.
const DefaultThreshold = 0.60

// Matcher classifies free-text messages against a fixed intent catalog.
//
// The index is built once by Initialize and is immutable afterwards, so
// concurrent queries need no locking beyond the embedding provider's own.
type Matcher struct {
	embedder   embeddings.Embedder
	logger     *zap.Logger
	collection *chromem.Collection

	collectionName   string
	defaultThreshold float64

	// intents holds retained intent names in catalog declaration order.
	// Ties in MatchAll are broken by this order.
	intents       []string
	totalExamples int

	mu    sync.Mutex
	ready atomic.Bool
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithDefaultThreshold overrides the default similarity threshold.
func WithDefaultThreshold(t float64) MatcherOption {
	return func(m *Matcher) {
		m.defaultThreshold = t
	}
}

// WithCollectionName overrides the chromem collection name.
func WithCollectionName(name string) MatcherOption {
	return func(m *Matcher) {
		m.collectionName = name
	}
}

// NewMatcher creates a matcher backed by the given embedder. Call Initialize
// before querying.
func NewMatcher(embedder embeddings.Embedder, logger *zap.Logger, opts ...MatcherOption) (*Matcher, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", embeddings.ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Matcher{
		embedder:         embedder,
		logger:           logger,
		collectionName:   "intent_examples",
		defaultThreshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Initialize builds the similarity index from the intent catalog.
//
// Every training phrase is embedded in one batch; any provider failure fails
// the whole build and leaves the matcher not ready. Intents with zero
// resolvable phrases across all languages are skipped and never match.
func (m *Matcher) Initialize(ctx context.Context, examples []IntentExample) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()

	var (
		intents []string
		docs    []chromem.Document
		phrases []string
	)
	for _, ex := range examples {
		byLang := ex.normalized()
		retained := 0
		// Deterministic doc IDs: iterate languages in sorted order.
		for _, lang := range sortedKeys(byLang) {
			for i, phrase := range byLang[lang] {
				docs = append(docs, chromem.Document{
					ID: fmt.Sprintf("%s/%s/%d", ex.Intent, lang, i),
					Metadata: map[string]string{
						"intent":   ex.Intent,
						"language": lang,
					},
					Content: phrase,
				})
				phrases = append(phrases, phrase)
				retained++
			}
		}
		if retained == 0 {
			m.logger.Warn("skipping intent with no resolvable examples",
				zap.String("intent", ex.Intent))
			continue
		}
		intents = append(intents, ex.Intent)
	}

	if len(docs) > 0 {
		vectors, err := m.embedder.EmbedDocuments(ctx, phrases)
		if err != nil {
			return fmt.Errorf("embedding training phrases: %w", err)
		}
		if len(vectors) != len(docs) {
			return fmt.Errorf("%w: got %d embeddings for %d phrases",
				embeddings.ErrEmbeddingFailed, len(vectors), len(docs))
		}
		for i := range docs {
			docs[i].Embedding = vectors[i]
		}
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection(m.collectionName, nil, m.embedQueryFunc())
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	if len(docs) > 0 {
		if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
			return fmt.Errorf("indexing examples: %w", err)
		}
	}

	m.collection = collection
	m.intents = intents
	m.totalExamples = len(docs)
	m.ready.Store(true)

	m.logger.Info("intent index built",
		zap.Int("intents", len(intents)),
		zap.Int("examples", len(docs)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// embedQueryFunc adapts the Embedder to chromem's embedding function.
func (m *Matcher) embedQueryFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return m.embedder.EmbedQuery(ctx, text)
	}
}

// IsReady reports whether initialization completed successfully.
func (m *Matcher) IsReady() bool {
	return m.ready.Load()
}

// Stats returns aggregate index statistics.
func (m *Matcher) Stats() Stats {
	if !m.ready.Load() {
		return Stats{}
	}
	return Stats{
		TotalIntents:  len(m.intents),
		TotalExamples: m.totalExamples,
	}
}

// Match returns the single best intent for text, or nil if no intent's score
// reaches threshold. It is exactly the head of MatchAll.
func (m *Matcher) Match(ctx context.Context, text string, threshold float64) (*MatchResult, error) {
	results, err := m.MatchAll(ctx, text, threshold)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	best := results[0]
	return &best, nil
}

// MatchDefault is Match with the matcher's configured default threshold.
func (m *Matcher) MatchDefault(ctx context.Context, text string) (*MatchResult, error) {
	return m.Match(ctx, text, m.defaultThreshold)
}

// MatchAll returns every intent whose best example similarity reaches
// threshold, ordered by score descending. Equal scores keep catalog
// declaration order, so the ranking is fully deterministic.
func (m *Matcher) MatchAll(ctx context.Context, text string, threshold float64) ([]MatchResult, error) {
	if !m.ready.Load() {
		return nil, ErrNotReady
	}
	if m.totalExamples == 0 {
		return nil, nil
	}

	query, err := m.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Rank against every indexed example; per-intent best is folded below.
	hits, err := m.collection.QueryEmbedding(ctx, query, m.totalExamples, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	best := make(map[string]float64, len(m.intents))
	for _, hit := range hits {
		score := clampScore(float64(hit.Similarity))
		name := hit.Metadata["intent"]
		if cur, seen := best[name]; !seen || score > cur {
			best[name] = score
		}
	}

	results := make([]MatchResult, 0, len(m.intents))
	for _, name := range m.intents {
		score, ok := best[name]
		if !ok || score < threshold {
			continue
		}
		results = append(results, MatchResult{Intent: name, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// clampScore bounds a raw similarity to [0,1]. Cosine similarity of
// normalized embeddings can dip below zero for unrelated texts, and
// degenerate vectors can yield NaN.
func clampScore(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
