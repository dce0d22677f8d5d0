package drugparser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// maxCatalogSize caps the downloaded CSV
const maxCatalogSize = 200 * 1024 * 1024

// DownloadCatalog fetches the catalog CSV from url and atomically replaces dest.
// The previous file is left untouched if anything fails.
func DownloadCatalog(ctx context.Context, client *http.Client, url, dest string) error {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	response, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", url, response.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, io.LimitReader(response.Body, maxCatalogSize+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if written > maxCatalogSize {
		return fmt.Errorf("catalog at %s exceeds %d bytes", url, maxCatalogSize)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}

	logging.Debug(fmt.Sprintf("%s downloaded to %s (%d bytes)", url, dest, written))
	return nil
}
