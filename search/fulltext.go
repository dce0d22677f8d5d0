package search

import (
	"context"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/metrics"
)

// Compile-time check to ensure FullTextSearcher implements Searcher interface
var _ interfaces.Searcher = (*FullTextSearcher)(nil)

// FullTextSearcher ranks matches with the index's own relevance order
type FullTextSearcher struct {
	index     interfaces.SearchIndex
	validator interfaces.DataValidator
}

// NewFullTextSearcher creates a searcher backed by index
func NewFullTextSearcher(index interfaces.SearchIndex, validator interfaces.DataValidator) *FullTextSearcher {
	return &FullTextSearcher{index: index, validator: validator}
}

// Strategy implements the Searcher interface
func (s *FullTextSearcher) Strategy() string {
	return StrategyFullText
}

// Search implements the Searcher interface. Index failures are logged and
// produce an empty result list.
func (s *FullTextSearcher) Search(ctx context.Context, query string, opts interfaces.SearchOptions) ([]entities.QueryResult, error) {
	if err := s.validator.ValidateQuery(query); err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(StrategyFullText, metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	if !s.index.Ready() {
		metrics.SearchRequestsTotal.WithLabelValues(StrategyFullText, metrics.OutcomeNotReady).Inc()
		return nil, ErrCatalogNotLoaded
	}

	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(StrategyFullText).Observe(time.Since(start).Seconds())
	}()

	typeFilter := ""
	if opts.Type != nil {
		typeFilter = opts.Type.String()
	}

	records, err := s.index.Query(ctx, Normalize(query), typeFilter, effectiveLimit(opts.Limit, DefaultFullTextLimit))
	if err != nil {
		logging.Error("Full-text search failed", "query", query, "error", err)
		metrics.SearchRequestsTotal.WithLabelValues(StrategyFullText, metrics.OutcomeError).Inc()
		return []entities.QueryResult{}, nil
	}

	results := make([]entities.QueryResult, 0, len(records))
	for _, r := range records {
		results = append(results, entities.NewQueryResult(r, FullTextConfidence))
	}

	outcome := metrics.OutcomeHit
	if len(results) == 0 {
		outcome = metrics.OutcomeMiss
	}
	metrics.SearchRequestsTotal.WithLabelValues(StrategyFullText, outcome).Inc()

	return results, nil
}
