package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/data"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/validation"
)

// mockParser returns a fixed catalog or error
type mockParser struct {
	mu         sync.Mutex
	records    []entities.DrugRecord
	stats      entities.BuildStats
	err        error
	parseCount int
	block      chan struct{}
}

func (m *mockParser) ParseCatalog(ctx context.Context) ([]entities.DrugRecord, entities.BuildStats, error) {
	m.mu.Lock()
	m.parseCount++
	m.mu.Unlock()

	if m.block != nil {
		<-m.block
	}
	if m.err != nil {
		return nil, entities.BuildStats{}, m.err
	}
	return m.records, m.stats, nil
}

func (m *mockParser) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parseCount
}

// mockIndex records what it was asked to load
type mockIndex struct {
	loaded  []entities.DrugRecord
	calls   int
	failErr error
}

func (m *mockIndex) ReplaceAll(ctx context.Context, records []entities.DrugRecord) error {
	m.calls++
	if m.failErr != nil {
		return m.failErr
	}
	m.loaded = records
	return nil
}
func (m *mockIndex) Query(ctx context.Context, text, typeFilter string, limit int) ([]entities.DrugRecord, error) {
	return nil, nil
}
func (m *mockIndex) Count(ctx context.Context) (int, error) { return len(m.loaded), nil }
func (m *mockIndex) Ready() bool                            { return m.loaded != nil }
func (m *mockIndex) Close() error                           { return nil }

func testRecords() []entities.DrugRecord {
	return []entities.DrugRecord{
		{Name: "DOLO 650", Generic: "Paracetamol (650mg)", Type: classifier.Tablet, Manufacturer: "Micro Labs"},
		{Name: "Ascoril LS Syrup", Generic: "Ambroxol (30mg/5ml)", Type: classifier.Syrup},
		{Name: "dolo 650", Generic: "", Type: classifier.Tablet},
	}
}

func TestReloadLoadsCatalog(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{records: testRecords(), stats: entities.BuildStats{TotalRows: 4, Kept: 3, SkippedShortRows: 1}}
	s := NewScheduler(dc, parser, validation.NewDataValidator(), nil, []string{"06:00"})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	catalog, err := dc.GetCatalog()
	if err != nil {
		t.Fatalf("Expected loaded catalog, got %v", err)
	}
	if catalog.Len() != 3 {
		t.Errorf("Expected 3 records, got %d", catalog.Len())
	}
	if catalog.NormalizedNames[1] != "ascoril ls syrup" {
		t.Errorf("Expected normalized search key, got %q", catalog.NormalizedNames[1])
	}

	report := dc.GetDataQualityReport()
	if report == nil {
		t.Fatal("Expected a quality report")
	}
	if report.DuplicateBrands != 1 {
		t.Errorf("Expected 1 duplicate brand, got %d", report.DuplicateBrands)
	}
	if report.SkippedRows != 1 {
		t.Errorf("Expected 1 skipped row, got %d", report.SkippedRows)
	}
	if dc.IsUpdating() {
		t.Error("Update flag should be cleared after reload")
	}
}

func TestReloadKeepsPreviousCatalogOnFailure(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{records: testRecords()}
	s := NewScheduler(dc, parser, validation.NewDataValidator(), nil, []string{"06:00"})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	parser.err = errors.New("file missing")
	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("Expected reload error")
	}

	catalog, err := dc.GetCatalog()
	if err != nil || catalog.Len() != 3 {
		t.Errorf("Expected previous catalog to survive, got %v, %d", err, catalog.Len())
	}
}

func TestReloadRejectsEmptyBuild(t *testing.T) {
	dc := data.NewDataContainer()
	index := &mockIndex{}
	parser := &mockParser{records: testRecords(), stats: entities.BuildStats{TotalRows: 3, Kept: 3}}
	s := NewScheduler(dc, parser, validation.NewDataValidator(), index, []string{"06:00"})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	loadedAt := dc.GetLastUpdated()

	// An HTML error page saved as the CSV yields only short rows
	parser.records = []entities.DrugRecord{}
	parser.stats = entities.BuildStats{TotalRows: 12, SkippedShortRows: 12}

	err := s.Reload(context.Background())
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("Expected ErrEmptyCatalog, got %v", err)
	}

	catalog, err := dc.GetCatalog()
	if err != nil || catalog.Len() != 3 {
		t.Errorf("Expected previous catalog with 3 records, got %v", err)
	}
	if !dc.GetLastUpdated().Equal(loadedAt) {
		t.Error("Last update time should not move on a rejected build")
	}
	if index.calls != 1 || len(index.loaded) != 3 {
		t.Errorf("Expected index untouched with 3 records, got %d calls, %d records", index.calls, len(index.loaded))
	}
	if dc.IsUpdating() {
		t.Error("Update flag should be cleared after a rejected build")
	}
}

func TestInitialEmptyBuildLeavesCatalogUnloaded(t *testing.T) {
	dc := data.NewDataContainer()
	s := NewScheduler(dc, &mockParser{}, validation.NewDataValidator(), nil, []string{"06:00"})

	if err := s.Reload(context.Background()); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("Expected ErrEmptyCatalog, got %v", err)
	}
	if _, err := dc.GetCatalog(); !errors.Is(err, interfaces.ErrCatalogNotLoaded) {
		t.Errorf("Expected ErrCatalogNotLoaded, got %v", err)
	}
}

func TestReloadRebuildsIndex(t *testing.T) {
	dc := data.NewDataContainer()
	index := &mockIndex{}
	s := NewScheduler(dc, &mockParser{records: testRecords()}, validation.NewDataValidator(), index, []string{"06:00"})

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if index.calls != 1 || len(index.loaded) != 3 {
		t.Errorf("Expected index loaded once with 3 records, got %d calls, %d records", index.calls, len(index.loaded))
	}
}

func TestReloadIndexFailure(t *testing.T) {
	dc := data.NewDataContainer()
	index := &mockIndex{failErr: errors.New("disk full")}
	s := NewScheduler(dc, &mockParser{records: testRecords()}, validation.NewDataValidator(), index, []string{"06:00"})

	if err := s.Reload(context.Background()); err == nil {
		t.Fatal("Expected index error")
	}

	// In-memory catalog is still swapped in
	if _, err := dc.GetCatalog(); err != nil {
		t.Errorf("Expected catalog to be loaded, got %v", err)
	}
}

func TestReloadSkipsWhenAlreadyUpdating(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{records: testRecords()}
	s := NewScheduler(dc, parser, validation.NewDataValidator(), nil, []string{"06:00"})

	if !dc.BeginUpdate() {
		t.Fatal("BeginUpdate failed")
	}
	defer dc.EndUpdate()

	if err := s.Reload(context.Background()); err != nil {
		t.Errorf("Expected nil for skipped reload, got %v", err)
	}
	if parser.count() != 0 {
		t.Errorf("Expected parser not to run, ran %d times", parser.count())
	}
}

func TestConcurrentReloadsRunOnce(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &mockParser{records: testRecords(), block: make(chan struct{})}
	s := NewScheduler(dc, parser, validation.NewDataValidator(), nil, []string{"06:00"})

	done := make(chan struct{})
	go func() {
		s.Reload(context.Background())
		close(done)
	}()

	// Wait for the first reload to hold the update flag
	for !dc.IsUpdating() {
		time.Sleep(time.Millisecond)
	}

	if err := s.Reload(context.Background()); err != nil {
		t.Errorf("Expected skipped reload, got %v", err)
	}

	close(parser.block)
	<-done

	if parser.count() != 1 {
		t.Errorf("Expected exactly 1 parse, got %d", parser.count())
	}
}

func TestStartSurvivesInitialFailure(t *testing.T) {
	dc := data.NewDataContainer()
	s := NewScheduler(dc, &mockParser{err: errors.New("no file")}, validation.NewDataValidator(), nil, []string{"06:00", "18:00"})

	if err := s.Start(); err != nil {
		t.Fatalf("Start should not fail on initial load error, got %v", err)
	}
	defer s.Stop()

	if _, err := dc.GetCatalog(); err == nil {
		t.Error("Catalog should remain not loaded")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(data.NewDataContainer(), &mockParser{records: testRecords()}, validation.NewDataValidator(), nil, []string{"25:99"})

	if err := s.Start(); err == nil {
		s.Stop()
		t.Error("Expected error for invalid reload time")
	}
}

func TestStartRequiresReloadTimes(t *testing.T) {
	s := NewScheduler(data.NewDataContainer(), &mockParser{records: testRecords()}, validation.NewDataValidator(), nil, nil)

	if err := s.Start(); err == nil {
		t.Error("Expected error without reload times")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewScheduler(data.NewDataContainer(), &mockParser{records: testRecords()}, validation.NewDataValidator(), nil, []string{"06:00"})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()
	s.Stop()
}

func TestCheckStaleness(t *testing.T) {
	dc := data.NewDataContainer()
	s := NewScheduler(dc, &mockParser{records: testRecords()}, validation.NewDataValidator(), nil, []string{"06:00"})

	if !s.checkStaleness(time.Now()) {
		t.Error("Never-loaded catalog should be stale")
	}

	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if s.checkStaleness(time.Now()) {
		t.Error("Fresh catalog should not be stale")
	}
	if !s.checkStaleness(time.Now().Add(26 * time.Hour)) {
		t.Error("Catalog older than 25h should be stale")
	}
}
