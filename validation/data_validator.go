// Package validation provides input validation and catalog quality reporting for the OneStopMed API.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

// Query limits, in runes
const (
	MinQueryLength = 2
	MaxQueryLength = 50
)

// Visit limits
const (
	MaxMedicines     = 30
	MaxSystolic      = 250
	MaxDiastolic     = 150
	MaxFieldLength   = 500
	maxReportSamples = 10
)

// ErrInvalidVisit is wrapped by every visit validation failure
var ErrInvalidVisit = errors.New("invalid visit")

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

func invalidQuery(format string, args ...any) error {
	return fmt.Errorf("%w: %s", interfaces.ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// ValidateQuery checks the length of a drug search query. Brand punctuation
// such as "&", "#" or ";" is legal: the fuzzy strategy matches in memory and
// the full-text strategy binds a sanitized MATCH expression. Every error wraps
// interfaces.ErrInvalidQuery.
func (v *DataValidatorImpl) ValidateQuery(query string) error {
	trimmed := strings.TrimSpace(query)
	length := utf8.RuneCountInString(trimmed)

	if length == 0 {
		return invalidQuery("query cannot be empty")
	}

	if length < MinQueryLength {
		return invalidQuery("query too short: minimum %d characters", MinQueryLength)
	}

	if length > MaxQueryLength {
		return invalidQuery("query too long: maximum %d characters", MaxQueryLength)
	}

	if strings.ContainsFunc(trimmed, unicode.IsControl) {
		return invalidQuery("query contains control characters")
	}

	// The full-text MATCH expression drops punctuation, leaving nothing to match
	if !strings.ContainsFunc(trimmed, isSearchable) {
		return invalidQuery("query must contain a letter or digit")
	}

	if hasExcessiveRepetition(trimmed) {
		return invalidQuery("query contains excessive character repetition")
	}

	return nil
}

// ValidateVisit checks a submitted visit. Blank fields are legal, they are
// printed with placeholders.
func (v *DataValidatorImpl) ValidateVisit(visit *prescription.Visit) error {
	if visit == nil {
		return fmt.Errorf("%w: visit is nil", ErrInvalidVisit)
	}

	if len(visit.Medicines) > MaxMedicines {
		return fmt.Errorf("%w: too many medicines: %d (maximum %d)", ErrInvalidVisit, len(visit.Medicines), MaxMedicines)
	}

	bp := strings.TrimSpace(visit.BP)
	if bp != "" && bp != prescription.DefaultVital {
		sys, dia, ok := prescription.ParseBP(bp)
		if !ok {
			return fmt.Errorf("%w: blood pressure %q is not systolic/diastolic", ErrInvalidVisit, bp)
		}
		if sys > MaxSystolic || dia > MaxDiastolic {
			return fmt.Errorf("%w: implausible blood pressure %d/%d", ErrInvalidVisit, sys, dia)
		}
	}

	freeText := map[string]string{
		"patientName":    visit.PatientName,
		"allergies":      visit.Allergies,
		"diagnosis":      visit.Diagnosis,
		"followUpReason": visit.FollowUpReason,
	}
	for field, value := range freeText {
		if utf8.RuneCountInString(value) > MaxFieldLength {
			return fmt.Errorf("%w: %s too long (maximum %d characters)", ErrInvalidVisit, field, MaxFieldLength)
		}
	}

	for i, m := range visit.Medicines {
		if utf8.RuneCountInString(m.Name) > 200 || utf8.RuneCountInString(m.Remarks) > MaxFieldLength {
			return fmt.Errorf("%w: medicine %d has an overlong field", ErrInvalidVisit, i+1)
		}
	}

	return nil
}

// ReportDataQuality summarizes duplicates, missing fields and the dosage-form
// distribution of a freshly built catalog.
func (v *DataValidatorImpl) ReportDataQuality(records []entities.DrugRecord, stats entities.BuildStats) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateBrandsList:       []string{},
		RecordsWithoutGenericList: []string{},
		TypeDistribution:          make(map[string]int),
		SkippedRows:               stats.Skipped(),
	}

	// Check 1: duplicate brand names (legal, but worth knowing)
	seen := make(map[string]int, len(records))
	for _, r := range records {
		key := strings.ToLower(r.Name)
		seen[key]++
		if seen[key] == 2 {
			report.DuplicateBrands++
			if len(report.DuplicateBrandsList) < maxReportSamples {
				report.DuplicateBrandsList = append(report.DuplicateBrandsList, r.Name)
			}
		}
	}

	// Check 2: missing composition (store first 10 names)
	for _, r := range records {
		if r.Generic == "" {
			report.RecordsWithoutGeneric++
			if len(report.RecordsWithoutGenericList) < maxReportSamples {
				report.RecordsWithoutGenericList = append(report.RecordsWithoutGenericList, r.Name)
			}
		}
	}

	// Check 3: missing manufacturer and form distribution
	for _, r := range records {
		if r.Manufacturer == "" {
			report.RecordsWithoutMaker++
		}
		report.TypeDistribution[r.Type.String()]++
	}

	if report.DuplicateBrands > 0 {
		logging.Debug("Duplicate brand names in catalog",
			"count", report.DuplicateBrands,
			"sample", report.DuplicateBrandsList,
		)
	}

	return report
}

func isSearchable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// hasExcessiveRepetition checks for the same rune repeated more than 10 times consecutively
func hasExcessiveRepetition(input string) bool {
	var prev rune
	run := 0
	for _, r := range input {
		if r == prev {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		prev = r
		run = 1
	}
	return false
}
