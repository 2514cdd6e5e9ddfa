// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report prints the run summary and writes results to CSV and YAML.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/ebook-search/internal/aggregate"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// DefaultPreview is the number of results PrintSummary lists in full.
const DefaultPreview = 20

const (
	queryWidth   = 48
	snippetWidth = 100
)

// PrintSummary writes totals, per-query counts, failures, per-keyword and
// per-site breakdowns and a preview of the first preview results to w.
func PrintSummary(w io.Writer, out aggregate.Output, preview int) {
	fmt.Fprintf(w, "Searched %d queries: %d results", len(out.Queries), len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	fmt.Fprintln(w)

	if len(out.Queries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-*s  %7s  %5s\n", queryWidth, "Query", "Fetched", "New")
		fmt.Fprintln(w, strings.Repeat("-", queryWidth+16))
		for _, qs := range out.Queries {
			text := truncate(qs.Query.Text, queryWidth)
			if qs.Err != nil {
				fmt.Fprintf(w, "%-*s  %7s  %5s\n", queryWidth, text, "FAILED", "-")
				continue
			}
			fmt.Fprintf(w, "%-*s  %7d  %5d\n", queryWidth, text, qs.Fetched, qs.Added)
		}
	}

	printBreakdown(w, "keyword", out.Results, func(r types.SearchResult) string { return r.Keyword })
	printBreakdown(w, "site", out.Results, func(r types.SearchResult) string { return r.Site })

	if len(out.Failures) > 0 {
		fmt.Fprintf(w, "\nFailed queries (%d):\n", len(out.Failures))
		for _, f := range out.Failures {
			fmt.Fprintf(w, "  %q: %v\n", f.Query, f.Err)
		}
	}

	printPreview(w, out.Results, preview)
}

// printBreakdown lists result counts grouped by field, largest first. Nothing
// is printed when no result has the field set.
func printBreakdown(w io.Writer, label string, results []types.SearchResult, field func(types.SearchResult) string) {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		k := field(r)
		if k == "" {
			continue
		}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	fmt.Fprintf(w, "\nResults by %s:\n", label)
	for _, k := range order {
		fmt.Fprintf(w, "  %s: %d\n", k, counts[k])
	}
}

func printPreview(w io.Writer, results []types.SearchResult, limit int) {
	if len(results) == 0 {
		fmt.Fprintln(w, "\nNo results found.")
		return
	}
	if limit <= 0 {
		return
	}

	fmt.Fprintf(w, "\n=== first %d of %d results ===\n\n", min(limit, len(results)), len(results))
	for i, r := range results {
		if i == limit {
			break
		}
		fmt.Fprintf(w, "%d. %s\n", i+1, r.Title)
		fmt.Fprintf(w, "   Query: %s\n", r.SourceQuery)
		fmt.Fprintf(w, "   URL: %s\n", r.URL)
		fmt.Fprintf(w, "   Description: %s\n", truncate(r.Snippet, snippetWidth))
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
}

// truncate shortens s to max runes, marking the cut with "...".
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
