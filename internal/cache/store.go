// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache keeps recent fetch results in SQLite so that repeating a
// search within the TTL does not query the providers again.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/litfinder/pkg/types"
)

const (
	dbFile = "fetch-cache.db"

	// DefaultDir is used when the configuration names no directory.
	DefaultDir = ".litfinder"

	// DefaultTTL is how long a cached fetch is served.
	DefaultTTL = time.Hour

	// timeLayout is fixed-width so stored timestamps compare as strings.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store manages the fetch cache database.
type Store struct {
	db  *sql.DB
	ttl time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// NewStore opens or creates the cache database at cfg.Dir/fetch-cache.db
// and creates the schema if it does not exist.
func NewStore(cfg types.CacheConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Store{db: db, ttl: ttl, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fetches (
			key TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			max_results INTEGER NOT NULL,
			sources TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			fetch_key TEXT NOT NULL REFERENCES fetches(key) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			title TEXT,
			authors TEXT,
			author_order TEXT,
			year INTEGER,
			abstract TEXT,
			journal TEXT,
			doi TEXT,
			source TEXT,
			PRIMARY KEY (fetch_key, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Key identifies a fetch request. Query case and surrounding whitespace,
// and the order of sources, do not change the key.
func Key(query string, maxResults int, sources []types.SourceName) string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = string(s)
	}
	slices.Sort(names)
	names = slices.Compact(names)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(query))))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(maxResults)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// Get returns the cached table for key. The boolean is false when there is
// no entry or the entry is older than the TTL.
func (s *Store) Get(ctx context.Context, key string) (types.Table, bool, error) {
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM fetches WHERE key = ?`, key).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Table{}, false, nil
	}
	if err != nil {
		return types.Table{}, false, fmt.Errorf("reading cache entry: %w", err)
	}

	at, err := time.Parse(timeLayout, fetchedAt)
	if err != nil || s.now().Sub(at) > s.ttl {
		return types.Table{}, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, author_order, year, abstract, journal, doi, source
		 FROM records WHERE fetch_key = ? ORDER BY position`, key)
	if err != nil {
		return types.Table{}, false, fmt.Errorf("reading cached records: %w", err)
	}
	defer rows.Close()

	var table types.Table
	for rows.Next() {
		var (
			r     types.Record
			order string
			year  sql.NullInt64
		)
		if err := rows.Scan(&r.Title, &r.Authors, &order, &year, &r.Abstract, &r.Journal, &r.DOI, &r.Source); err != nil {
			return types.Table{}, false, fmt.Errorf("scanning cached record: %w", err)
		}
		r.AuthorOrder = types.NameOrder(order)
		if year.Valid {
			r.Year = types.IntPtr(int(year.Int64))
		}
		table.Records = append(table.Records, r)
	}
	if err := rows.Err(); err != nil {
		return types.Table{}, false, fmt.Errorf("iterating cached records: %w", err)
	}
	if table.Len() == 0 {
		return types.Table{}, false, nil
	}
	return table, true, nil
}

// Put stores table under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key, query string, maxResults int, sources []types.SourceName, table types.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE fetch_key = ?`, key); err != nil {
		return fmt.Errorf("deleting old records: %w", err)
	}

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = string(src)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO fetches (key, query, max_results, sources, fetched_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			query=excluded.query, max_results=excluded.max_results,
			sources=excluded.sources, fetched_at=excluded.fetched_at`,
		key, query, maxResults, strings.Join(names, ","), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting fetch: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (fetch_key, position, title, authors, author_order, year, abstract, journal, doi, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range table.Records {
		var year sql.NullInt64
		if r.Year != nil {
			year = sql.NullInt64{Int64: int64(*r.Year), Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			key, i, r.Title, r.Authors, string(r.AuthorOrder), year,
			r.Abstract, r.Journal, r.DOI, string(r.Source),
		)
		if err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Purge deletes cache entries and returns how many were removed. With
// expiredOnly set, entries still within the TTL are kept.
func (s *Store) Purge(ctx context.Context, expiredOnly bool) (int64, error) {
	query := `DELETE FROM fetches`
	var args []any
	if expiredOnly {
		query += ` WHERE fetched_at < ?`
		args = append(args, s.now().Add(-s.ttl).UTC().Format(timeLayout))
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return res.RowsAffected()
}
