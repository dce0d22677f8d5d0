// Package data provides thread-safe storage of the drug catalog for the OneStopMed API.
// DataContainer swaps whole catalog snapshots atomically so readers never
// observe a partially loaded catalog and never take a lock.
package data

import (
	"sync/atomic"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the current catalog snapshot with atomic pointers for zero-downtime updates
type DataContainer struct {
	catalog         atomic.Pointer[entities.Catalog]
	report          atomic.Pointer[interfaces.DataQualityReport]
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a DataContainer in the "not loaded" state
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetCatalog returns the current snapshot, or ErrCatalogNotLoaded before the first successful load
func (dc *DataContainer) GetCatalog() (*entities.Catalog, error) {
	catalog := dc.catalog.Load()
	if catalog == nil {
		return nil, interfaces.ErrCatalogNotLoaded
	}
	return catalog, nil
}

// GetDataQualityReport returns the report of the current snapshot, or nil
func (dc *DataContainer) GetDataQualityReport() *interfaces.DataQualityReport {
	return dc.report.Load()
}

// GetLastUpdated returns the timestamp of the last data update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a data update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically replaces the catalog and its quality report.
// A nil catalog is ignored so a failed build never unloads a good one.
func (dc *DataContainer) UpdateData(catalog *entities.Catalog, report *interfaces.DataQualityReport) {
	if catalog == nil {
		logging.Warn("Ignoring update with nil catalog")
		return
	}

	// Report first: a reader seeing the new catalog also sees its report
	dc.report.Store(report)
	dc.catalog.Store(catalog)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a data update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a data update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
