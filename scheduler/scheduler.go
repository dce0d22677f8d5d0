// Package scheduler reloads the drug catalog on a daily schedule, keeps the
// full-text index in step with it, and warns when the data goes stale.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"github.com/Tejas-dj/OneStopMed-v1/metrics"
	"github.com/Tejas-dj/OneStopMed-v1/search"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// ErrEmptyCatalog is returned by Reload when the source yields no usable records
var ErrEmptyCatalog = errors.New("catalog build produced no records")

const (
	staleAfter    = 25 * time.Hour
	reloadTimeout = 10 * time.Minute
)

// Scheduler handles catalog reloads and staleness monitoring
type Scheduler struct {
	dataStore   interfaces.DataStore
	parser      interfaces.Parser
	validator   interfaces.DataValidator
	index       interfaces.SearchIndex // nil unless the fulltext strategy is active
	reloadTimes []string
	scheduler   *gocron.Scheduler

	monitorInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// NewScheduler creates a scheduler. index may be nil; reloadTimes are HH:MM entries.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, validator interfaces.DataValidator,
	index interfaces.SearchIndex, reloadTimes []string) *Scheduler {
	return &Scheduler{
		dataStore:       dataStore,
		parser:          parser,
		validator:       validator,
		index:           index,
		reloadTimes:     reloadTimes,
		scheduler:       gocron.NewScheduler(time.Local),
		monitorInterval: time.Hour,
		stop:            make(chan struct{}),
	}
}

// Start loads the catalog once, then schedules reloads and health monitoring.
// A failed initial load is logged, not returned: the API stays up and reports
// the catalog as not loaded until a scheduled reload succeeds.
func (s *Scheduler) Start() error {
	if err := s.Reload(context.Background()); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
	}

	if len(s.reloadTimes) == 0 {
		return fmt.Errorf("no reload times configured")
	}

	_, err := s.scheduler.Every(1).Days().At(strings.Join(s.reloadTimes, ";")).Do(func() {
		if err := s.Reload(context.Background()); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule reloads", "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Catalog reloads scheduled", "at", s.reloadTimes)

	s.startHealthMonitoring()

	return nil
}

// Stop stops scheduled reloads and the staleness monitor
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() { close(s.stop) })
}

// Reload rebuilds the catalog and swaps it in. Overlapping calls are skipped.
func (s *Scheduler) Reload(ctx context.Context) error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	logging.Info("Starting catalog reload", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	records, stats, err := s.parser.ParseCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}

	// A truncated or non-CSV source builds nothing; keep serving the last good catalog
	if len(records) == 0 {
		logging.Error("Catalog build produced no records, keeping current catalog",
			"total_rows", stats.TotalRows,
			"skipped", stats.Skipped(),
		)
		return fmt.Errorf("%w: %d rows read, %d skipped", ErrEmptyCatalog, stats.TotalRows, stats.Skipped())
	}

	report := s.validator.ReportDataQuality(records, stats)
	logReport(report)

	catalog := entities.NewCatalog(records, stats, search.Normalize)
	s.dataStore.UpdateData(catalog, report)
	metrics.ObserveCatalog(catalog.Len(), stats.SkippedShortRows, stats.SkippedEmptyName)

	logging.Info("Catalog reload completed",
		"duration", time.Since(start).String(),
		"records", catalog.Len(),
		"skipped", stats.Skipped(),
	)

	if s.index != nil {
		indexStart := time.Now()
		if err := s.index.ReplaceAll(ctx, records); err != nil {
			return fmt.Errorf("failed to rebuild search index: %w", err)
		}
		logging.Info("Search index rebuilt", "duration", time.Since(indexStart).String(), "records", len(records))
	}

	return nil
}

func logReport(report *interfaces.DataQualityReport) {
	if report == nil {
		return
	}

	if report.DuplicateBrands > 0 {
		logging.Warn("Duplicate brand names detected",
			"total", report.DuplicateBrands,
			"sample", report.DuplicateBrandsList,
		)
	}

	if report.RecordsWithoutGeneric > 0 {
		logging.Warn("Records without composition",
			"count", report.RecordsWithoutGeneric,
			"sample", report.RecordsWithoutGenericList,
		)
	}

	if report.SkippedRows > 0 {
		logging.Warn("Malformed catalog rows skipped", "count", report.SkippedRows)
	}

	logging.Debug("Catalog type distribution", "types", report.TypeDistribution)
}

// startHealthMonitoring warns when the catalog has not been refreshed in time
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStaleness(time.Now())
			}
		}
	}()
}

// checkStaleness reports whether the data is older than staleAfter, logging a warning if so
func (s *Scheduler) checkStaleness(now time.Time) bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if lastUpdate.IsZero() {
		logging.Warn("Catalog has never been loaded")
		return true
	}
	if now.Sub(lastUpdate) > staleAfter {
		logging.Warn("Catalog hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339))
		return true
	}
	return false
}
