package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

func init() {
	logging.InitLogger("")
}

func TestValidateQuery(t *testing.T) {
	validator := NewDataValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"two letters", "do", false},
		{"brand prefix", "dol", false},
		{"brand with strength", "Dolo 650", false},
		{"combination", "Amoxycillin + Clavulanic", false},
		{"strength with unit", "Paracetamol (650mg)", false},
		{"accented", "Crème", false},
		{"padded", "  dol  ", false},
		{"single letter", "a", true},
		{"single letter padded", "  a  ", true},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("ab", 26), true},
		{"ampersand", "Calcium & Vitamin", false},
		{"hash and hyphen", "B-Complex #1", false},
		{"semicolon", "paracetamol 500mg; caffeine", false},
		{"many words", "dolo 650 tab strip of 15 tablets", false},
		{"markup", "<script>alert(1)</script>", false},
		{"quote", "x' or 1=1", false},
		{"punctuation only", "&&##", true},
		{"bell character", "dolo\x07", true},
		{"tab inside", "dolo\t650", true},
		{"repetition", "aaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateQuery(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateQuery(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, interfaces.ErrInvalidQuery) {
				t.Errorf("Expected error to wrap ErrInvalidQuery, got %v", err)
			}
		})
	}
}

func TestValidateQueryMaxLengthBoundary(t *testing.T) {
	validator := NewDataValidator()

	if err := validator.ValidateQuery(strings.Repeat("ab", 25)); err != nil {
		t.Errorf("Expected 50 characters to be accepted, got %v", err)
	}
	if err := validator.ValidateQuery(strings.Repeat("ab", 25) + "c"); err == nil {
		t.Error("Expected 51 characters to be rejected")
	}
}

func TestValidateVisit(t *testing.T) {
	validator := NewDataValidator()

	tooMany := make([]prescription.Medicine, MaxMedicines+1)
	for i := range tooMany {
		tooMany[i] = prescription.Medicine{Name: fmt.Sprintf("Med %d", i)}
	}

	tests := []struct {
		name    string
		visit   *prescription.Visit
		wantErr bool
	}{
		{"empty visit", &prescription.Visit{}, false},
		{"normal bp", &prescription.Visit{BP: "120/80"}, false},
		{"bp placeholder", &prescription.Visit{BP: "--"}, false},
		{"bp at limits", &prescription.Visit{BP: "250/150"}, false},
		{"systolic too high", &prescription.Visit{BP: "251/80"}, true},
		{"diastolic too high", &prescription.Visit{BP: "120/151"}, true},
		{"malformed bp", &prescription.Visit{BP: "120-80"}, true},
		{"max medicines", &prescription.Visit{Medicines: tooMany[:MaxMedicines]}, false},
		{"too many medicines", &prescription.Visit{Medicines: tooMany}, true},
		{"long diagnosis", &prescription.Visit{Diagnosis: strings.Repeat("x", 501)}, true},
		{"long medicine name", &prescription.Visit{Medicines: []prescription.Medicine{{Name: strings.Repeat("x", 201)}}}, true},
		{"nil visit", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVisit(tt.visit)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateVisit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidVisit) {
				t.Errorf("Expected error to wrap ErrInvalidVisit, got %v", err)
			}
		})
	}
}

func TestReportDataQuality(t *testing.T) {
	validator := NewDataValidator()

	records := []entities.DrugRecord{
		{Name: "Dolo 650", Generic: "Paracetamol", Type: classifier.Tablet, Manufacturer: "Micro Labs"},
		{Name: "DOLO 650", Generic: "Paracetamol", Type: classifier.Tablet, Manufacturer: "Other Labs"},
		{Name: "dolo 650", Generic: "", Type: classifier.Tablet, Manufacturer: ""},
		{Name: "Ascoril LS Syrup", Generic: "Ambroxol", Type: classifier.Syrup, Manufacturer: "Glenmark"},
	}
	stats := entities.BuildStats{TotalRows: 6, Kept: 4, SkippedShortRows: 1, SkippedEmptyName: 1}

	report := validator.ReportDataQuality(records, stats)

	if report.DuplicateBrands != 1 {
		t.Errorf("Expected 1 duplicated brand, got %d", report.DuplicateBrands)
	}
	if len(report.DuplicateBrandsList) != 1 || report.DuplicateBrandsList[0] != "DOLO 650" {
		t.Errorf("Unexpected duplicate list: %v", report.DuplicateBrandsList)
	}
	if report.RecordsWithoutGeneric != 1 || report.RecordsWithoutMaker != 1 {
		t.Errorf("Expected 1 record without generic and maker, got %d and %d",
			report.RecordsWithoutGeneric, report.RecordsWithoutMaker)
	}
	if report.TypeDistribution["Tablet"] != 3 || report.TypeDistribution["Syrup"] != 1 {
		t.Errorf("Unexpected distribution: %v", report.TypeDistribution)
	}
	if report.SkippedRows != 2 {
		t.Errorf("Expected 2 skipped rows, got %d", report.SkippedRows)
	}
}

func TestReportDataQualityCapsSamples(t *testing.T) {
	validator := NewDataValidator()

	var records []entities.DrugRecord
	for i := range 25 {
		records = append(records, entities.DrugRecord{Name: fmt.Sprintf("Brand %d", i)})
	}

	report := validator.ReportDataQuality(records, entities.BuildStats{})

	if report.RecordsWithoutGeneric != 25 {
		t.Errorf("Expected 25 records without generic, got %d", report.RecordsWithoutGeneric)
	}
	if len(report.RecordsWithoutGenericList) != 10 {
		t.Errorf("Expected sample capped at 10, got %d", len(report.RecordsWithoutGenericList))
	}
}

func TestReportDataQualityEmpty(t *testing.T) {
	report := NewDataValidator().ReportDataQuality(nil, entities.BuildStats{})

	if report.DuplicateBrandsList == nil || report.RecordsWithoutGenericList == nil || report.TypeDistribution == nil {
		t.Error("Expected initialized collections on an empty report")
	}
}
