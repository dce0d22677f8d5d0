// Package sqlite keeps the drug catalog in an SQLite FTS5 table for prefix
// full-text ranking. Loads replace the whole table; queries borrow a pooled
// connection for their own duration only.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"unicode"

	_ "modernc.org/sqlite"

	"github.com/Tejas-dj/OneStopMed-v1/classifier"
	"github.com/Tejas-dj/OneStopMed-v1/drugparser/entities"
	"github.com/Tejas-dj/OneStopMed-v1/interfaces"
	"github.com/Tejas-dj/OneStopMed-v1/logging"
)

// Compile-time check to ensure Store implements SearchIndex interface
var _ interfaces.SearchIndex = (*Store)(nil)

const (
	createTable = `CREATE VIRTUAL TABLE drugs USING fts5(
	name,
	generic,
	type UNINDEXED,
	manufacturer,
	tokenize = 'porter'
)`

	insertRow = `INSERT INTO drugs (name, generic, type, manufacturer) VALUES (?, ?, ?, ?)`

	// Ties in bm25 keep load order
	selectMatch = `SELECT name, generic, type, manufacturer FROM drugs
WHERE drugs MATCH ? AND (? = '' OR type = ?)
ORDER BY rank, rowid
LIMIT ?`

	// Rows logged per progress line during a load
	progressEvery = 1000
)

// Store is the FTS5-backed search index
type Store struct {
	db    *sql.DB
	path  string
	ready atomic.Bool
}

// dsn enables WAL and a busy timeout on every pooled connection
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + path + "?" + q.Encode()
}

// Open opens or creates the index database at path. An index loaded by an
// earlier run is immediately ready.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}

	s := &Store{db: db, path: path}

	var n int
	err = db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'drugs'`).Scan(&n)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect index %s: %w", path, err)
	}
	s.ready.Store(n > 0)

	return s, nil
}

// ReplaceAll drops the table and reloads it with records in one transaction.
// Concurrent readers keep seeing the previous content until commit.
func (s *Store) ReplaceAll(ctx context.Context, records []entities.DrugRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer func() {
		// No-op after a successful commit
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS drugs`); err != nil {
		return fmt.Errorf("failed to drop drugs table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create drugs table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRow)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Name, r.Generic, r.Type.String(), r.Manufacturer); err != nil {
			return fmt.Errorf("failed to insert %q: %w", r.Name, err)
		}
		if (i+1)%progressEvery == 0 {
			logging.Debug("Indexing drugs", "inserted", i+1, "total", len(records))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}

	s.ready.Store(true)
	logging.Info("Search index loaded", "path", s.path, "records", len(records))
	return nil
}

// MatchExpression turns free text into an FTS5 query matching every word as
// a prefix in the name or generic columns. It returns "" when text has no words.
func MatchExpression(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}

	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = `"` + w + `"*`
	}
	return "{name generic} : (" + strings.Join(terms, " ") + ")"
}

// Query implements the SearchIndex interface
func (s *Store) Query(ctx context.Context, text string, typeFilter string, limit int) ([]entities.DrugRecord, error) {
	match := MatchExpression(text)
	if match == "" {
		return []entities.DrugRecord{}, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire index connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, selectMatch, match, typeFilter, typeFilter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer rows.Close()

	records := make([]entities.DrugRecord, 0, limit)
	for rows.Next() {
		var r entities.DrugRecord
		var form string
		if err := rows.Scan(&r.Name, &r.Generic, &form, &r.Manufacturer); err != nil {
			return nil, fmt.Errorf("failed to read index row: %w", err)
		}
		if r.Type, err = classifier.ParseDosageForm(form); err != nil {
			r.Type = classifier.Fallback
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index rows: %w", err)
	}

	return records, nil
}

// Count implements the SearchIndex interface
func (s *Store) Count(ctx context.Context) (int, error) {
	if !s.ready.Load() {
		return 0, interfaces.ErrCatalogNotLoaded
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM drugs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count index rows: %w", err)
	}
	return n, nil
}

// Ready implements the SearchIndex interface
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Close implements the SearchIndex interface
func (s *Store) Close() error {
	s.ready.Store(false)
	return s.db.Close()
}
