// Package interfaces defines core abstractions for the OneStopMed API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/prescription"
)

var (
	// ErrCatalogNotLoaded is returned when a query arrives before any catalog was loaded
	ErrCatalogNotLoaded = errors.New("drug catalog is not loaded")

	// ErrInvalidQuery is returned for queries rejected by validation
	ErrInvalidQuery = errors.New("invalid search query")
)

// DataQualityReport provides a summary of catalog quality issues
type DataQualityReport struct {
	DuplicateBrands           int            // Brand names appearing more than once
	DuplicateBrandsList       []string       // First 10 duplicated brand names
	RecordsWithoutGeneric     int            // Records with an empty composition
	RecordsWithoutGenericList []string       // First 10 brand names without composition
	RecordsWithoutMaker       int            // Records with an empty manufacturer
	TypeDistribution          map[string]int // Record count per dosage form
	SkippedRows               int            // Raw rows dropped during build
}

// DataStore defines the contract for the in-memory catalog.
// It provides thread-safe access with atomic replacement for zero-downtime reloads.
type DataStore interface {
	// GetCatalog returns the current snapshot or ErrCatalogNotLoaded
	GetCatalog() (*entities.Catalog, error)
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	GetDataQualityReport() *DataQualityReport

	// Data update methods
	UpdateData(catalog *entities.Catalog, report *DataQualityReport)
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for building the catalog from the raw source.
type Parser interface {
	// ParseCatalog reads the source and returns classified records in source order
	ParseCatalog(ctx context.Context) ([]entities.DrugRecord, entities.BuildStats, error)
}

// SearchIndex is the durable full-text store behind the fulltext strategy.
type SearchIndex interface {
	// ReplaceAll drops any previous content and loads records
	ReplaceAll(ctx context.Context, records []entities.DrugRecord) error
	// Query runs a ranked prefix match of the words in text; typeFilter may be empty
	Query(ctx context.Context, text string, typeFilter string, limit int) ([]entities.DrugRecord, error)
	Count(ctx context.Context) (int, error)
	// Ready reports whether the index holds a loaded catalog
	Ready() bool
	Close() error
}

// SearchOptions tunes a single search
type SearchOptions struct {
	Limit int
	Type  *classifier.DosageForm
}

// Searcher resolves a free-text query into ranked results.
// Implementations return ErrInvalidQuery and ErrCatalogNotLoaded (wrapped or not)
// and an empty slice when nothing matches.
type Searcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]entities.QueryResult, error)
	Strategy() string
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and staleness checks.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	SearchDrugs(w http.ResponseWriter, r *http.Request)
	ClassifyDrug(w http.ResponseWriter, r *http.Request)
	ServePagedDrugs(w http.ResponseWriter, r *http.Request)
	GeneratePrescription(w http.ResponseWriter, r *http.Request)
	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current status, data details and the HTTP status to send
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled reload time
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for validation operations.
type DataValidator interface {
	// ValidateQuery checks a search query; errors wrap ErrInvalidQuery
	ValidateQuery(query string) error

	// ValidateVisit checks a submitted clinical visit
	ValidateVisit(visit *prescription.Visit) error

	// ReportDataQuality generates a catalog quality report
	ReportDataQuality(records []entities.DrugRecord, stats entities.BuildStats) *DataQualityReport
}

// RecordStore persists visit summaries to the remote record store.
type RecordStore interface {
	Save(ctx context.Context, summary prescription.VisitSummary) error
	Close()
}

// PrescriptionRenderer writes a finished visit as a document.
type PrescriptionRenderer interface {
	Render(w io.Writer, visit prescription.Visit, meta prescription.RenderMeta) error
	ContentType() string
}
