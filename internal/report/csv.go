// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/ebook-search/pkg/types"
)

// CSVHeader is the first row of every results file.
var CSVHeader = []string{"title", "url", "snippet", "source_query"}

// IOError reports that an output file could not be written. It is fatal.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// WriteCSV writes results to path, replacing any existing file. The data is
// written to a temporary file in the same directory and renamed into place,
// so a failed write leaves the previous file intact. An empty result set
// still produces the header row.
func WriteCSV(path string, results []types.SearchResult) error {
	return writeAtomic(path, func(f *os.File) error {
		cw := csv.NewWriter(f)
		if err := cw.Write(CSVHeader); err != nil {
			return err
		}
		for _, r := range results {
			if err := cw.Write([]string{r.Title, r.URL, r.Snippet, r.SourceQuery}); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// writeAtomic creates a temp file next to path, fills it with write and
// renames it over path. Every failure is returned as *IOError.
func writeAtomic(path string, write func(*os.File) error) error {
	fail := func(err error) error { return &IOError{Path: path, Err: err} }

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fail(fmt.Errorf("creating directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, ".ebook-search-*.tmp")
	if err != nil {
		return fail(fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	writeErr := write(tmp)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fail(writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("closing temp file: %w", closeErr))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fail(err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fail(fmt.Errorf("renaming temp file: %w", err))
	}
	return nil
}
