package drugparser

import (
	"fmt"
	"os"
	"strings"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// Column layout of the raw catalog:
// 0 id, 1 name, 2 manufacturer, 3 pack label, 4 composition 1, 5 composition 2
const (
	colName         = 1
	colManufacturer = 2
	colPackLabel    = 3
	colComposition1 = 4
	colComposition2 = 5

	minFields = 5
)

// joinComposition joins the non-empty composition parts with " + "
func joinComposition(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " + ")
}

// field returns the trimmed field at idx, or "" if the row is too short
func field(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// BuildCatalog extracts, classifies and validates raw rows. Rows with fewer
// than five fields or with a blank name are dropped and counted, never
// reported as errors. The output order follows the input order.
func BuildCatalog(rows [][]string) ([]entities.DrugRecord, entities.BuildStats) {
	stats := entities.BuildStats{TotalRows: len(rows)}
	records := make([]entities.DrugRecord, 0, len(rows))

	for _, row := range rows {
		if len(row) < minFields {
			stats.SkippedShortRows++
			continue
		}

		name := field(row, colName)
		if name == "" {
			stats.SkippedEmptyName++
			continue
		}

		packLabel := field(row, colPackLabel)

		records = append(records, entities.DrugRecord{
			Name:         name,
			Manufacturer: field(row, colManufacturer),
			Generic:      joinComposition(field(row, colComposition1), field(row, colComposition2)),
			Type:         classifier.Classify(packLabel, name),
		})
	}

	stats.Kept = len(records)
	return records, stats
}

// LoadCatalogFile reads and builds the catalog stored at path. It only fails
// when the source cannot be opened or read at all.
func LoadCatalogFile(path string, encoding string) ([]entities.DrugRecord, entities.BuildStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, entities.BuildStats{}, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close catalog file", "error", err)
		}
	}()

	rows, err := ReadRows(file, encoding)
	if err != nil {
		return nil, entities.BuildStats{}, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	records, stats := BuildCatalog(rows)

	if stats.Skipped() > 0 {
		logging.Info("Catalog skip statistics",
			"short_rows", stats.SkippedShortRows,
			"empty_name", stats.SkippedEmptyName,
			"total_rows", stats.TotalRows,
			"records_parsed", stats.Kept)
	}

	return records, stats, nil
}
