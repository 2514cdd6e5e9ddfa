// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the Google Custom Search JSON API and pages through
// results for a single query.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/ebook-search/internal/httputil"
	"github.com/pdiddy/ebook-search/internal/query"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// DefaultBaseURL is the Custom Search JSON API endpoint.
const DefaultBaseURL = "https://www.googleapis.com/customsearch/v1"

const (
	// pageSize is the largest page the API serves.
	pageSize = 10

	// APIResultLimit is the number of results the API can return for a
	// query; start+num may not exceed APIResultLimit+1.
	APIResultLimit = 100
)

// SearchError reports a failed request for one query. The orchestrator skips
// the query and continues.
type SearchError struct {
	Query string
	// Page is the 1-based page that failed.
	Page int
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q page %d: %v", e.Query, e.Page, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Client issues paged requests to the search API.
type Client struct {
	HTTP     *http.Client
	APIKey   string
	EngineID string

	// UserAgent is sent with every request.
	UserAgent string

	// MaxResults caps the results gathered for a single query. Values above
	// APIResultLimit are clamped.
	MaxResults int

	// BaseURL overrides DefaultBaseURL; tests point it at httptest servers.
	BaseURL string

	// MaxRetries bounds retries on HTTP 429; 0 uses the httputil default.
	MaxRetries int

	Log logrus.FieldLogger
}

// NewClient returns a client configured from cfg.
func NewClient(cfg types.Config, log logrus.FieldLogger) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		APIKey:     cfg.APIKey,
		EngineID:   cfg.SearchEngineID,
		UserAgent:  cfg.UserAgent,
		MaxResults: cfg.MaxResultsPerSite,
		BaseURL:    DefaultBaseURL,
		Log:        log,
	}
}

// Limit returns the effective per-query cap.
func (c *Client) Limit() int {
	if c.MaxResults <= 0 {
		return types.DefaultMaxResultsPerSite
	}
	return min(c.MaxResults, APIResultLimit)
}

// Search pages through results for q until the API has no more results or
// the per-query cap is reached. Any failed page returns a *SearchError and
// no results.
func (c *Client) Search(ctx context.Context, q query.Query) ([]types.SearchResult, error) {
	limit := c.Limit()
	log := c.logger().WithField("query", q.Text)

	var results []types.SearchResult
	start := 1
	for page := 1; len(results) < limit && start <= APIResultLimit; page++ {
		num := min(pageSize, limit-len(results), APIResultLimit+1-start)

		resp, err := c.fetchPage(ctx, q.Text, start, num)
		if err != nil {
			err.Page = page
			return nil, err
		}

		log.WithFields(logrus.Fields{
			"page":  page,
			"start": start,
			"items": len(resp.Items),
		}).Debug("fetched page")

		for _, item := range resp.Items {
			if len(results) == limit {
				break
			}
			results = append(results, types.SearchResult{
				Title:       strings.TrimSpace(item.Title),
				URL:         strings.TrimSpace(item.Link),
				Snippet:     strings.TrimSpace(item.Snippet),
				SourceQuery: q.Text,
				DisplayLink: item.DisplayLink,
				Keyword:     q.Keyword,
				Filetype:    q.Filetype,
				Site:        q.Site,
			})
		}

		if len(resp.Items) < num || len(resp.Queries.NextPage) == 0 {
			break
		}
		start += len(resp.Items)
	}
	return results, nil
}

func (c *Client) fetchPage(ctx context.Context, text string, start, num int) (*apiResponse, *SearchError) {
	fail := func(status int, err error) (*apiResponse, *SearchError) {
		return nil, &SearchError{Query: text, StatusCode: status, Err: err}
	}

	params := url.Values{
		"key":   {c.APIKey},
		"cx":    {c.EngineID},
		"q":     {text},
		"start": {strconv.Itoa(start)},
		"num":   {strconv.Itoa(num)},
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return fail(0, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries, c.logger())
	if err != nil {
		return fail(0, fmt.Errorf("search API request: %s", redact(err.Error(), c.APIKey)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("reading response: %w", err))
	}

	var ar apiResponse
	decodeErr := json.Unmarshal(body, &ar)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && ar.Error != nil && ar.Error.Message != "" {
			return fail(resp.StatusCode, fmt.Errorf("search API returned HTTP %d: %s", resp.StatusCode, ar.Error.Message))
		}
		return fail(resp.StatusCode, fmt.Errorf("search API returned HTTP %d", resp.StatusCode))
	}
	if decodeErr != nil {
		return fail(resp.StatusCode, fmt.Errorf("parsing response: %w", decodeErr))
	}
	if ar.Error != nil {
		return fail(resp.StatusCode, fmt.Errorf("search API error %d: %s", ar.Error.Code, ar.Error.Message))
	}
	return &ar, nil
}

func (c *Client) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// redact keeps the API key out of errors that echo the request URL.
func redact(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(key), "REDACTED")
}

// Custom Search JSON API structures.
type apiResponse struct {
	Queries apiQueries `json:"queries"`
	Items   []apiItem  `json:"items"`
	Error   *apiError  `json:"error"`
}

type apiQueries struct {
	NextPage []apiPageInfo `json:"nextPage"`
}

type apiPageInfo struct {
	StartIndex int `json:"startIndex"`
}

type apiItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
