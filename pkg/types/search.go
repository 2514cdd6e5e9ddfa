// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ebook-search pipeline.
package types

// SearchResult is a single hit returned by the search API for one query.
// Results are created by the search client and are not modified afterwards;
// URL is the deduplication key across queries.
type SearchResult struct {
	// Title is the page title as returned by the API.
	Title string `json:"title" yaml:"title"`

	// URL is the link to the result.
	URL string `json:"url" yaml:"url"`

	// Snippet is the short text excerpt shown by the API.
	Snippet string `json:"snippet" yaml:"snippet"`

	// SourceQuery is the exact query string that produced this result.
	SourceQuery string `json:"source_query" yaml:"source_query"`

	// DisplayLink is the host name the API displays for the result.
	DisplayLink string `json:"display_link,omitempty" yaml:"display_link,omitempty"`

	// Keyword, Filetype and Site identify the parts of the query.
	Keyword  string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Filetype string `json:"filetype,omitempty" yaml:"filetype,omitempty"`
	Site     string `json:"site,omitempty" yaml:"site,omitempty"`
}
