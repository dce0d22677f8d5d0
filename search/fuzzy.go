package search

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/metrics"
)

// Compile-time check to ensure FuzzySearcher implements Searcher interface
var _ interfaces.Searcher = (*FuzzySearcher)(nil)

// FuzzySearcher scores the query against every brand name of the current
// catalog snapshot. Snapshots are immutable, so no locking is needed.
type FuzzySearcher struct {
	store     interfaces.DataStore
	validator interfaces.DataValidator
}

// NewFuzzySearcher creates a fuzzy searcher reading catalogs from store
func NewFuzzySearcher(store interfaces.DataStore, validator interfaces.DataValidator) *FuzzySearcher {
	return &FuzzySearcher{store: store, validator: validator}
}

// Strategy implements the Searcher interface
func (s *FuzzySearcher) Strategy() string {
	return StrategyFuzzy
}

type scored struct {
	index int
	score int
}

// Search implements the Searcher interface
func (s *FuzzySearcher) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]entities.QueryResult, error) {
	if err := s.validator.ValidateQuery(query); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(StrategyFuzzy, metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	catalog, err := s.store.GetCatalog()
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(StrategyFuzzy, metrics.OutcomeNotReady).Inc()
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(StrategyFuzzy).Observe(time.Since(start).Seconds())
	}()

	key := Normalize(query)
	limit := effectiveLimit(opts.Limit, DefaultFuzzyLimit)

	var candidates []scored
	for i, name := range catalog.NormalizedNames {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("search cancelled: %w", err)
			}
		}
		if opts.Type != nil && catalog.Records[i].Type != *opts.Type {
			continue
		}
		if score := Similarity(key, name); score > ConfidenceThreshold {
			candidates = append(candidates, scored{index: i, score: score})
		}
	}

	// Stable on catalog order for equal scores
	slices.SortStableFunc(candidates, func(a, b scored) int {
		return b.score - a.score
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]entities.QueryResult, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, entities.NewQueryResult(catalog.Records[c.index], c.score))
	}

	outcome := metrics.OutcomeHit
	if len(results) == 0 {
		outcome = metrics.OutcomeMiss
	}
	metrics.SearchRequestsTotal.WithLabelValues(StrategyFuzzy, outcome).Inc()

	return results, nil
}
