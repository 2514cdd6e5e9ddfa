// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate runs every query against the search client in order,
// merges the results and removes duplicate URLs.
package aggregate

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/ebook-search/internal/query"
	"github.com/pdiddy/ebook-search/internal/search"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// Searcher runs a single query. *search.Client implements it.
type Searcher interface {
	Search(ctx context.Context, q query.Query) ([]types.SearchResult, error)
}

// Options controls a run.
type Options struct {
	// Delay is the pause between consecutive queries.
	Delay time.Duration

	Log logrus.FieldLogger
}

// QueryStat records the outcome of one query.
type QueryStat struct {
	Query query.Query
	// Fetched is the number of results the API returned.
	Fetched int
	// Added is the number of those results that were not duplicates.
	Added int
	// Err is set when the query failed and was skipped.
	Err error
}

// Output is the result of a complete run.
type Output struct {
	// Results holds deduplicated results in first-seen order.
	Results []types.SearchResult
	Queries []QueryStat
	// DupsRemoved counts results dropped because their URL was already seen.
	DupsRemoved int
	// MissingURL counts results dropped because they had no URL.
	MissingURL int
	Failures   []*search.SearchError
}

// Failed reports whether any query failed.
func (o Output) Failed() bool { return len(o.Failures) > 0 }

// Run issues every query in order, one at a time. A failing query is logged,
// recorded and skipped; it never stops the run. When two queries return the
// same URL the result from the earlier query is kept. Once ctx is cancelled
// no further queries are issued.
func Run(ctx context.Context, queries iter.Seq[query.Query], s Searcher, opts Options) Output {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var out Output
	seen := make(map[string]bool)
	first := true

	for q := range queries {
		if (!first && !wait(ctx, opts.Delay)) || ctx.Err() != nil {
			log.WithField("query", q.Text).Warnf("run stopped: %v", ctx.Err())
			break
		}
		first = false

		log.WithField("query", q.Text).Info("searching")
		results, err := s.Search(ctx, q)
		if err != nil {
			se := asSearchError(q, err)
			log.WithField("query", q.Text).Warnf("query failed: %v", se.Err)
			out.Failures = append(out.Failures, se)
			out.Queries = append(out.Queries, QueryStat{Query: q, Err: se})
			continue
		}

		stat := QueryStat{Query: q, Fetched: len(results)}
		for _, r := range results {
			key := dedupKey(r)
			if key == "" {
				out.MissingURL++
				continue
			}
			if seen[key] {
				out.DupsRemoved++
				continue
			}
			seen[key] = true
			out.Results = append(out.Results, r)
			stat.Added++
		}
		out.Queries = append(out.Queries, stat)
	}
	return out
}

// wait pauses for d and reports whether ctx is still live afterwards.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// asSearchError keeps a *search.SearchError as is and wraps anything else so
// every failure carries its query.
func asSearchError(q query.Query, err error) *search.SearchError {
	var se *search.SearchError
	if errors.As(err, &se) {
		return se
	}
	return &search.SearchError{Query: q.Text, Err: err}
}

func dedupKey(r types.SearchResult) string {
	return strings.TrimSpace(r.URL)
}
