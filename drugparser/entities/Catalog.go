package entities

import "time"

// BuildStats counts what happened to the raw rows during a catalog build
type BuildStats struct {
	TotalRows        int `json:"totalRows"`
	Kept             int `json:"kept"`
	SkippedShortRows int `json:"skippedShortRows"`
	SkippedEmptyName int `json:"skippedEmptyName"`
}

// Skipped returns the number of dropped rows
func (s BuildStats) Skipped() int {
	return s.SkippedShortRows + s.SkippedEmptyName
}

// Catalog is an immutable snapshot of the searchable corpus.
// NormalizedNames[i] is the search key of Records[i].
type Catalog struct {
	Records         []DrugRecord
	NormalizedNames []string
	Stats           BuildStats
	LoadedAt        time.Time
}

// NewCatalog builds a catalog, precomputing each record's search key with normalize
func NewCatalog(records []DrugRecord, stats BuildStats, normalize func(string) string) *Catalog {
	names := make([]string, len(records))
	for i := range records {
		names[i] = normalize(records[i].Name)
	}

	return &Catalog{
		Records:         records,
		NormalizedNames: names,
		Stats:           stats,
		LoadedAt:        time.Now(),
	}
}

// Len returns the number of records
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}
