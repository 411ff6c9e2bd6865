package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/poiesic/hindsight/ai"
	"github.com/poiesic/hindsight/core"
	"github.com/poiesic/hindsight/storage"
)

// Default query parameters.
const (
	// DefaultTopK is the result count when the caller does not specify one.
	DefaultTopK = 10

	// DefaultThreshold is the minimum raw cosine similarity for a
	// semantic candidate. It applies before any recency boost.
	DefaultThreshold = 0.65

	// Default signal weights. They are normalized to sum to one before
	// scoring, so only their ratio matters.
	DefaultSemanticWeight = 0.7
	DefaultKeywordWeight  = 0.3

	// keywordOnlyScale discounts hits found only by the keyword index:
	// they matched words, but nothing vouches for their meaning.
	keywordOnlyScale = 0.5
)

// Searcher provides hybrid semantic and keyword search over journal entries.
type Searcher struct {
	entryRepo     storage.EntryRepository
	embeddingRepo storage.EmbeddingRepository
	embedder      ai.Embedder
	logger        *slog.Logger
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

// NewSearcher creates a new searcher.
func NewSearcher(
	entryRepo storage.EntryRepository,
	embeddingRepo storage.EmbeddingRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Searcher, error) {
	if entryRepo == nil {
		return nil, ErrEntryRepositoryRequired
	}
	if embeddingRepo == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		entryRepo:     entryRepo,
		embeddingRepo: embeddingRepo,
		embedder:      embedder,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Options holds per-query parameters. The zero value selects defaults.
type Options struct {
	// Filter narrows the candidate entry set before either pass runs.
	Filter *core.Filter

	// Threshold overrides the minimum raw similarity when positive.
	Threshold float64

	// SemanticWeight and KeywordWeight override the signal weights when
	// both are positive.
	SemanticWeight float64
	KeywordWeight  float64

	// Monitor observes the search stages when set.
	Monitor Monitor
}

// Search runs a hybrid query with default options.
// Returns up to topK results, ranked by combined score.
func (s *Searcher) Search(ctx context.Context, query string, topK int) ([]*core.SearchResult, error) {
	return s.SearchWithOptions(ctx, query, topK, nil)
}

// SearchWithOptions runs a hybrid query: a semantic pass over stored
// embeddings and a keyword pass over the posting index, merged by
// normalized weighted score. A query that cannot be embedded fails
// outright; silently degrading to keyword-only would misrepresent results.
func (s *Searcher) SearchWithOptions(ctx context.Context, query string, topK int, opts *Options) ([]*core.SearchResult, error) {
	if opts == nil {
		opts = &Options{}
	}
	monitor := opts.Monitor
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	semanticWeight, keywordWeight := DefaultSemanticWeight, DefaultKeywordWeight
	if opts.SemanticWeight > 0 && opts.KeywordWeight > 0 {
		semanticWeight, keywordWeight = opts.SemanticWeight, opts.KeywordWeight
	}
	// Normalize so only the ratio matters.
	total := semanticWeight + keywordWeight
	semanticWeight /= total
	keywordWeight /= total

	monitor.Start(query)

	// Candidate set: every entry passing the filter.
	entries, err := s.entryRepo.GetEntries(ctx, opts.Filter)
	if err != nil {
		s.logger.Error("error loading entries for search", "err", err)
		return nil, err
	}
	if len(entries) == 0 {
		return []*core.SearchResult{}, nil
	}
	allowed := make(map[core.ID]*core.Entry, len(entries))
	for _, entry := range entries {
		allowed[entry.Id] = entry
	}

	// 1. Semantic pass.
	queryVector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(queryVector)

	records, err := s.embeddingRepo.GetAllEmbeddings(ctx)
	if err != nil {
		s.logger.Error("error loading stored embeddings", "err", err)
		return nil, err
	}

	now := time.Now().UTC()
	semantic := make([]*core.SearchResult, 0, len(records))
	for _, record := range records {
		entry, ok := allowed[record.EntryId]
		if !ok {
			continue
		}

		similarity, err := CosineSimilarity(queryVector, record.Vector)
		if err != nil {
			s.logger.Error("stored vector incompatible with query",
				"entry", record.EntryId, "stored", len(record.Vector), "query", len(queryVector))
			return nil, err
		}
		// Threshold applies to the raw similarity; the boost only reorders
		// entries that already qualify.
		if similarity < threshold {
			continue
		}

		semantic = append(semantic, &core.SearchResult{
			EntryId:    record.EntryId,
			Similarity: similarity,
			Score:      RecencyBoost(similarity, entry.CreatedAt, now),
		})
	}

	sort.Slice(semantic, func(i, j int) bool {
		if semantic[i].Score != semantic[j].Score {
			return semantic[i].Score > semantic[j].Score
		}
		return semantic[i].EntryId < semantic[j].EntryId
	})
	if len(semantic) > 2*topK {
		semantic = semantic[:2*topK]
	}
	monitor.AfterSemanticPass(semantic)

	// 2. Keyword pass.
	keywordIds, err := s.entryRepo.SearchKeyword(ctx, query, 2*topK)
	if err != nil {
		s.logger.Error("error in keyword search", "err", err)
		return nil, err
	}
	keywordSet := make(map[core.ID]bool, len(keywordIds))
	filteredIds := keywordIds[:0]
	for _, id := range keywordIds {
		if _, ok := allowed[id]; ok {
			keywordSet[id] = true
			filteredIds = append(filteredIds, id)
		}
	}
	monitor.AfterKeywordPass(filteredIds)

	// 3. Merge and score.
	var maxBoosted float64
	if len(semantic) > 0 {
		maxBoosted = semantic[0].Score
	}

	results := make([]*core.SearchResult, 0, len(semantic)+len(keywordSet))
	inSemantic := make(map[core.ID]bool, len(semantic))
	for _, candidate := range semantic {
		inSemantic[candidate.EntryId] = true

		normScore := 0.0
		if maxBoosted > 0 {
			normScore = candidate.Score / maxBoosted
		}
		score := normScore * semanticWeight
		matchType := core.MatchSemantic
		if keywordSet[candidate.EntryId] {
			score += keywordWeight
			matchType = core.MatchHybrid
		}

		results = append(results, &core.SearchResult{
			EntryId:    candidate.EntryId,
			Similarity: candidate.Similarity,
			Score:      score,
			MatchType:  matchType,
		})
	}

	for _, id := range filteredIds {
		if inSemantic[id] {
			continue
		}
		results = append(results, &core.SearchResult{
			EntryId:   id,
			Score:     keywordWeight * keywordOnlyScale,
			MatchType: core.MatchKeyword,
		})
	}

	// 4. Final ranking: dense 1-based ranks, ties share a rank.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntryId < results[j].EntryId
	})
	rank := 0
	lastScore := math.NaN()
	for _, result := range results {
		if result.Score != lastScore {
			rank++
			lastScore = result.Score
		}
		result.Rank = rank
	}
	if len(results) > topK {
		results = results[:topK]
	}

	monitor.Finish(results)
	return results, nil
}
