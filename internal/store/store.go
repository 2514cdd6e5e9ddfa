// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store exports a run's results to a SQLite database so they can be
// queried with SQL. Each export replaces the previous run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ebook-search/internal/aggregate"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// Store wraps the results database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS results (
			position INTEGER PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT,
			snippet TEXT,
			source_query TEXT NOT NULL,
			keyword TEXT,
			filetype TEXT,
			site TEXT,
			display_link TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_keyword ON results(keyword)`,
		`CREATE TABLE IF NOT EXISTS failures (
			query TEXT NOT NULL,
			error TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// ReplaceRun deletes the previous run and inserts out in one transaction.
func (s *Store) ReplaceRun(ctx context.Context, out aggregate.Output) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM results`, `DELETE FROM failures`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing previous run: %w", err)
		}
	}

	ins, err := tx.PrepareContext(ctx, `INSERT INTO results
		(position, url, title, snippet, source_query, keyword, filetype, site, display_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for i, r := range out.Results {
		if _, err := ins.ExecContext(ctx, i+1, r.URL, r.Title, r.Snippet, r.SourceQuery,
			r.Keyword, r.Filetype, r.Site, r.DisplayLink); err != nil {
			return fmt.Errorf("inserting %s: %w", r.URL, err)
		}
	}

	for _, f := range out.Failures {
		if _, err := tx.ExecContext(ctx, `INSERT INTO failures (query, error) VALUES (?, ?)`,
			f.Query, f.Err.Error()); err != nil {
			return fmt.Errorf("inserting failure for %q: %w", f.Query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Results returns the stored results in their original order.
func (s *Store) Results(ctx context.Context) ([]types.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url, title, snippet, source_query,
		keyword, filetype, site, display_link FROM results ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []types.SearchResult
	for rows.Next() {
		var r types.SearchResult
		if err := rows.Scan(&r.URL, &r.Title, &r.Snippet, &r.SourceQuery,
			&r.Keyword, &r.Filetype, &r.Site, &r.DisplayLink); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Failures returns the failed queries of the stored run as query -> error.
func (s *Store) Failures(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT query, error FROM failures`)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var q, e string
		if err := rows.Scan(&q, &e); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		out[q] = e
	}
	return out, rows.Err()
}
