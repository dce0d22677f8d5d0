package entities

import (
	"github.com/Tejas-dj/OneStopMed-v1/classifier"
)

// DrugRecord is one classified catalog entry. Records are created during
// catalog build and never mutated afterwards.
type DrugRecord struct {
	Name         string                `json:"name"`
	Generic      string                `json:"generic"`
	Type         classifier.DosageForm `json:"type"`
	Manufacturer string                `json:"manufacturer"`
}

// QueryResult is a ranked search hit returned to clients
type QueryResult struct {
	Brand        string                `json:"brand"`
	Generic      string                `json:"generic"`
	Type         classifier.DosageForm `json:"type"`
	Manufacturer string                `json:"manufacturer"`
	Confidence   int                   `json:"confidence"`
}

// NewQueryResult builds a result from a record and a 0-100 confidence
func NewQueryResult(r DrugRecord, confidence int) QueryResult {
	return QueryResult{
		Brand:        r.Name,
		Generic:      r.Generic,
		Type:         r.Type,
		Manufacturer: r.Manufacturer,
		Confidence:   confidence,
	}
}
