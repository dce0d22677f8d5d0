// Package drugparser reads the raw medicine CSV and turns it into classified drug records.
package drugparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Tejas-dj/OneStopMed-v1/logging"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Supported source encodings
const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf-8":
		// Invalid sequences become U+FFFD instead of failing the read
		return unicode.UTF8.NewDecoder(), nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported catalog encoding %q", name)
	}
}

// ReadRows decodes r with the given encoding and returns every CSV row after
// the header. Rows may have any number of fields.
func ReadRows(r io.Reader, enc string) ([][]string, error) {
	dec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	// Skip the header row
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return [][]string{}, nil
		}
		return nil, fmt.Errorf("failed to read catalog header: %w", err)
	}

	var rows [][]string
	malformed := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				malformed++
				continue
			}
			return nil, fmt.Errorf("failed to read catalog row: %w", err)
		}
		rows = append(rows, record)
	}

	if malformed > 0 {
		logging.Warn("Catalog rows with CSV syntax errors skipped", "count", malformed)
	}

	return rows, nil
}
