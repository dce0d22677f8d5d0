package drugparser

import (
	"context"
	"net/http"

	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// Compile-time check to ensure CatalogParser implements Parser interface
var _ interfaces.Parser = (*CatalogParser)(nil)

// CatalogParser loads the catalog from a local CSV, refreshing it from a
// remote URL first when one is configured.
type CatalogParser struct {
	path     string
	url      string
	encoding string
	client   *http.Client
}

// NewCatalogParser creates a parser for the CSV at path. url may be empty.
func NewCatalogParser(path, url, encoding string) *CatalogParser {
	return &CatalogParser{
		path:     path,
		url:      url,
		encoding: encoding,
	}
}

// ParseCatalog implements the Parser interface
func (p *CatalogParser) ParseCatalog(ctx context.Context) ([]entities.DrugRecord, entities.BuildStats, error) {
	if p.url != "" {
		// A failed refresh still lets us rebuild from the last good file
		if err := DownloadCatalog(ctx, p.client, p.url, p.path); err != nil {
			logging.Warn("Catalog download failed, using local copy", "url", p.url, "error", err)
		}
	}

	return LoadCatalogFile(p.path, p.encoding)
}
