// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/ebook-search/internal/aggregate"
	"github.com/pdiddy/ebook-search/internal/query"
	"github.com/pdiddy/ebook-search/internal/search"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// RunFile is the on-disk snapshot of a run. It lets the summary and CSV be
// regenerated later without querying the API again.
type RunFile struct {
	Params  RunParams            `yaml:"params"`
	Queries []QueryRecord        `yaml:"queries"`
	Results []types.SearchResult `yaml:"results"`
	Summary RunSummary           `yaml:"summary"`
}

// RunParams stores the settings that shaped the run. The API key is never
// written.
type RunParams struct {
	SearchEngineID    string   `yaml:"search_engine_id"`
	Keywords          []string `yaml:"keywords"`
	Filetypes         []string `yaml:"filetypes,omitempty"`
	Sites             []string `yaml:"sites,omitempty"`
	MaxResultsPerSite int      `yaml:"max_results_per_site"`
}

// QueryRecord is one line of the per-query breakdown.
type QueryRecord struct {
	Query    string `yaml:"query"`
	Keyword  string `yaml:"keyword"`
	Site     string `yaml:"site,omitempty"`
	Filetype string `yaml:"filetype,omitempty"`
	Fetched  int    `yaml:"fetched"`
	Added    int    `yaml:"added"`
	Error    string `yaml:"error,omitempty"`
}

// RunSummary stores totals and the time the run finished.
type RunSummary struct {
	Total             int       `yaml:"total"`
	DuplicatesRemoved int       `yaml:"duplicates_removed"`
	Failed            int       `yaml:"failed"`
	Timestamp         time.Time `yaml:"timestamp"`
}

// NewRunFile captures cfg and out.
func NewRunFile(cfg types.Config, out aggregate.Output, now time.Time) RunFile {
	rf := RunFile{
		Params: RunParams{
			SearchEngineID:    cfg.SearchEngineID,
			Keywords:          cfg.Keywords,
			Filetypes:         cfg.Filetypes,
			Sites:             cfg.Sites,
			MaxResultsPerSite: cfg.MaxResultsPerSite,
		},
		Results: out.Results,
		Summary: RunSummary{
			Total:             len(out.Results),
			DuplicatesRemoved: out.DupsRemoved,
			Failed:            len(out.Failures),
			Timestamp:         now.UTC(),
		},
	}
	for _, qs := range out.Queries {
		rec := QueryRecord{
			Query:    qs.Query.Text,
			Keyword:  qs.Query.Keyword,
			Site:     qs.Query.Site,
			Filetype: qs.Query.Filetype,
			Fetched:  qs.Fetched,
			Added:    qs.Added,
		}
		if qs.Err != nil {
			rec.Error = failureText(qs.Err)
		}
		rf.Queries = append(rf.Queries, rec)
	}
	return rf
}

// Output rebuilds the aggregate output recorded in the file.
func (rf RunFile) Output() aggregate.Output {
	out := aggregate.Output{
		Results:     rf.Results,
		DupsRemoved: rf.Summary.DuplicatesRemoved,
	}
	for _, rec := range rf.Queries {
		qs := aggregate.QueryStat{
			Query: query.Query{
				Text:     rec.Query,
				Keyword:  rec.Keyword,
				Site:     rec.Site,
				Filetype: rec.Filetype,
			},
			Fetched: rec.Fetched,
			Added:   rec.Added,
		}
		if rec.Error != "" {
			se := &search.SearchError{Query: rec.Query, Err: errors.New(rec.Error)}
			qs.Err = se
			out.Failures = append(out.Failures, se)
		}
		out.Queries = append(out.Queries, qs)
	}
	return out
}

// WriteRunFile saves rf as YAML at path, replacing any existing file.
func WriteRunFile(path string, rf RunFile) error {
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	return writeAtomic(path, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// ReadRunFile loads a run saved by WriteRunFile.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var rf RunFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &rf, nil
}

// failureText returns the underlying cause for search errors so that a
// reloaded run does not repeat the query prefix.
func failureText(err error) string {
	var se *search.SearchError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}
