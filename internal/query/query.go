// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query composes search query strings from keywords, sites and
// file types.
package query

import (
	"iter"
	"strings"
)

// Query is one search to issue against the API.
type Query struct {
	// Text is the full query string sent to the API.
	Text string

	Keyword  string
	Site     string
	Filetype string
}

// String returns the query text.
func (q Query) String() string { return q.Text }

// New builds the query for one keyword with an optional site and file type
// restriction, e.g. "site:archive.org dune filetype:pdf".
func New(keyword, site, filetype string) Query {
	var b strings.Builder
	if site != "" {
		b.WriteString("site:")
		b.WriteString(site)
		b.WriteByte(' ')
	}
	b.WriteString(keyword)
	if filetype != "" {
		b.WriteString(" filetype:")
		b.WriteString(filetype)
	}
	return Query{Text: b.String(), Keyword: keyword, Site: site, Filetype: filetype}
}

// Build yields one query per keyword, site and file type combination in
// keyword order, then site order, then file type order. An empty sites or
// filetypes list means no restriction on that axis.
func Build(keywords, sites, filetypes []string) iter.Seq[Query] {
	if len(sites) == 0 {
		sites = []string{""}
	}
	if len(filetypes) == 0 {
		filetypes = []string{""}
	}
	return func(yield func(Query) bool) {
		for _, kw := range keywords {
			for _, site := range sites {
				for _, ft := range filetypes {
					if !yield(New(kw, site, ft)) {
						return
					}
				}
			}
		}
	}
}

// Count returns the number of queries Build yields for the same inputs.
func Count(keywords, sites, filetypes []string) int {
	return len(keywords) * max(1, len(sites)) * max(1, len(filetypes))
}
