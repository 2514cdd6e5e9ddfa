// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

const (
	// DefaultMaxResultsPerSite applies when MAX_RESULTS_PER_SITE is unset.
	DefaultMaxResultsPerSite = 10

	// DefaultOutputPath is the CSV file written on every run.
	DefaultOutputPath = "ebook_search_results.csv"

	DefaultTimeout    = 30 * time.Second
	DefaultQueryDelay = 1 * time.Second
	DefaultUserAgent  = "ebook-search/0.1"
)

// HTTPConfig holds settings for requests to the search API.
type HTTPConfig struct {
	// Timeout bounds every HTTP request.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Config is the run configuration. It is loaded once at startup and is
// read-only afterwards.
type Config struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search API. Never serialized.
	APIKey string `json:"-" yaml:"-"`

	// SearchEngineID selects the custom search engine (the "cx" parameter).
	SearchEngineID string `json:"search_engine_id" yaml:"search_engine_id"`

	// Keywords are searched one query each, in order.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Filetypes restrict results to document extensions. Empty means
	// unrestricted.
	Filetypes []string `json:"filetypes,omitempty" yaml:"filetypes,omitempty"`

	// Sites restrict results to domains. Empty means the whole web.
	Sites []string `json:"sites,omitempty" yaml:"sites,omitempty"`

	// MaxResultsPerSite caps the results fetched for a single query.
	MaxResultsPerSite int `json:"max_results_per_site" yaml:"max_results_per_site"`

	// QueryDelay is the pause between consecutive queries.
	QueryDelay time.Duration `json:"query_delay" yaml:"query_delay"`

	// OutputPath is the CSV file to write.
	OutputPath string `json:"output_path" yaml:"output_path"`
}
