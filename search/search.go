// Package search resolves partial, possibly misspelled drug names against the
// catalog. Two strategies sit behind interfaces.Searcher: fuzzy ranking over
// the in-memory catalog and prefix full-text ranking over the SQLite index.
package search

import (
	"fmt"

	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
)

// Strategy names accepted by SEARCH_STRATEGY
const (
	StrategyFuzzy    = "fuzzy"
	StrategyFullText = "fulltext"
)

// Result limits
const (
	DefaultFuzzyLimit    = 5
	DefaultFullTextLimit = 20
	MaxLimit             = 50

	// Candidates must score strictly above this to be returned
	ConfidenceThreshold = 50

	// Every full-text hit carries this confidence; rank orders them
	FullTextConfidence = 100
)

var (
	ErrCatalogNotLoaded = interfaces.ErrCatalogNotLoaded
	ErrInvalidQuery     = interfaces.ErrInvalidQuery
)

// effectiveLimit clamps a requested limit to (0, MaxLimit]
func effectiveLimit(requested, fallback int) int {
	if requested <= 0 {
		return fallback
	}
	return min(requested, MaxLimit)
}

// New builds the searcher for strategy. The full-text strategy needs index.
func New(strategy string, store interfaces.DataStore, index interfaces.SearchIndex, validator interfaces.DataValidator) (interfaces.Searcher, error) {
	switch strategy {
	case StrategyFuzzy:
		return NewFuzzySearcher(store, validator), nil
	case StrategyFullText:
		if index == nil {
			return nil, fmt.Errorf("%s search requires a search index", StrategyFullText)
		}
		return NewFullTextSearcher(index, validator), nil
	default:
		return nil, fmt.Errorf("unknown search strategy %q", strategy)
	}
}
