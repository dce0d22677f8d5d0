// Package health reports catalog freshness and search readiness for the /health endpoint.
package health

import (
	"math"
	"net/http"
	"slices"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// Compile-time check to ensure HealthCheckerImpl implements HealthChecker
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// DefaultReloadTimes is used when no valid reload schedule is given
var DefaultReloadTimes = []string{"06:00", "18:00"}

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	index       interfaces.SearchIndex
	reloadTimes []time.Duration // offsets from midnight, ascending
	now         func() time.Time
}

// NewHealthChecker creates a health checker. index is nil unless the full-text
// strategy is active; reloadTimes are HH:MM entries of the reload schedule.
func NewHealthChecker(dataStore interfaces.DataStore, index interfaces.SearchIndex, reloadTimes []string) *HealthCheckerImpl {
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		index:       index,
		reloadTimes: parseReloadTimes(reloadTimes),
		now:         time.Now,
	}
}

func parseReloadTimes(entries []string) []time.Duration {
	offsets := make([]time.Duration, 0, len(entries))
	for _, e := range entries {
		t, err := time.Parse("15:04", e)
		if err != nil {
			logging.Warn("Ignoring invalid reload time", "entry", e)
			continue
		}
		offsets = append(offsets, time.Duration(t.Hour())*time.Hour+time.Duration(t.Minute())*time.Minute)
	}

	if len(offsets) == 0 {
		return parseReloadTimes(DefaultReloadTimes)
	}

	slices.Sort(offsets)
	return slices.Compact(offsets)
}

// HealthCheck returns HTTP-specific health data
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	now := h.now()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	catalog, catalogErr := h.dataStore.GetCatalog()

	dataAge := now.Sub(lastUpdate)
	indexReady := h.index == nil || h.index.Ready()

	switch {
	case catalogErr != nil || catalog.Len() == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case !indexReady:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"records":     catalog.Len(),
		"is_updating": isUpdating,
		"next_update": h.CalculateNextUpdate().Format(time.RFC3339),
	}

	if !lastUpdate.IsZero() {
		data["last_update"] = lastUpdate.Format(time.RFC3339)
		data["data_age_hours"] = math.Round(dataAge.Hours()*10) / 10
	}

	if catalog != nil {
		data["skipped_rows"] = catalog.Stats.Skipped()
	}

	if h.index != nil {
		data["index_ready"] = indexReady
	}

	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(now.Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled reload time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, offset := range h.reloadTimes {
		if at := midnight.Add(offset); at.After(now) {
			return at
		}
	}

	// First reload of tomorrow
	return midnight.AddDate(0, 0, 1).Add(h.reloadTimes[0])
}
