// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ebook-search/internal/secrets"
	"github.com/pdiddy/ebook-search/pkg/types"
)

var allEnv = []string{
	"API_KEY", "SEARCH_ENGINE_ID", "KEYWORDS", "FILETYPES",
	"MAX_RESULTS_PER_SITE", "SITES", "SITES_FILE", "QUERY_DELAY",
	"REQUEST_TIMEOUT", "OUTPUT_FILE",
}

// setEnv clears every variable Load reads, then applies env.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range allEnv {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func required() map[string]string {
	return map[string]string{
		"API_KEY":          "key",
		"SEARCH_ENGINE_ID": "cx",
		"KEYWORDS":         "dune, foundation",
	}
}

func load(t *testing.T, env map[string]string) (types.Config, error) {
	t.Helper()
	setEnv(t, env)
	v, err := New("")
	require.NoError(t, err)
	return Load(v, secrets.Secrets{})
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(t, required())
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "cx", cfg.SearchEngineID)
	assert.Equal(t, []string{"dune", "foundation"}, cfg.Keywords)
	assert.Empty(t, cfg.Filetypes)
	assert.Empty(t, cfg.Sites)
	assert.Equal(t, types.DefaultMaxResultsPerSite, cfg.MaxResultsPerSite)
	assert.Equal(t, types.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, types.DefaultQueryDelay, cfg.QueryDelay)
	assert.Equal(t, types.DefaultOutputPath, cfg.OutputPath)
}

func TestLoadOptionalValues(t *testing.T) {
	env := required()
	env["FILETYPES"] = "pdf, .EPUB,,pdf"
	env["MAX_RESULTS_PER_SITE"] = "5"
	env["SITES"] = "archive.org,Gutenberg.org"
	env["QUERY_DELAY"] = "0s"
	env["REQUEST_TIMEOUT"] = "15s"
	env["OUTPUT_FILE"] = "out.csv"

	cfg, err := load(t, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"pdf", "epub"}, cfg.Filetypes)
	assert.Equal(t, 5, cfg.MaxResultsPerSite)
	assert.Equal(t, []string{"archive.org", "gutenberg.org"}, cfg.Sites)
	assert.Equal(t, time.Duration(0), cfg.QueryDelay)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, "out.csv", cfg.OutputPath)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(env map[string]string)
		wantKey string
	}{
		{"missing api key", func(e map[string]string) { delete(e, "API_KEY") }, KeyAPIKey},
		{"blank api key", func(e map[string]string) { e["API_KEY"] = "   " }, KeyAPIKey},
		{"missing engine id", func(e map[string]string) { delete(e, "SEARCH_ENGINE_ID") }, KeySearchEngineID},
		{"missing keywords", func(e map[string]string) { delete(e, "KEYWORDS") }, KeyKeywords},
		{"only separators", func(e map[string]string) { e["KEYWORDS"] = " , ," }, KeyKeywords},
		{"non-numeric max", func(e map[string]string) { e["MAX_RESULTS_PER_SITE"] = "ten" }, KeyMaxResults},
		{"zero max", func(e map[string]string) { e["MAX_RESULTS_PER_SITE"] = "0" }, KeyMaxResults},
		{"negative max", func(e map[string]string) { e["MAX_RESULTS_PER_SITE"] = "-3" }, KeyMaxResults},
		{"bad site", func(e map[string]string) { e["SITES"] = "https://x.org/path" }, KeySites},
		{"bad delay", func(e map[string]string) { e["QUERY_DELAY"] = "soon" }, KeyQueryDelay},
		{"negative delay", func(e map[string]string) { e["QUERY_DELAY"] = "-1s" }, KeyQueryDelay},
		{"zero timeout", func(e map[string]string) { e["REQUEST_TIMEOUT"] = "0s" }, KeyRequestTimeout},
		{"missing sites file", func(e map[string]string) { e["SITES_FILE"] = "/nonexistent/sites.txt" }, KeySitesFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := required()
			tt.mutate(env)
			_, err := load(t, env)
			require.Error(t, err)

			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "want *ConfigError, got %T", err)
			assert.Equal(t, tt.wantKey, ce.Key)
		})
	}
}

func TestLoadFallsBackToSecrets(t *testing.T) {
	setEnv(t, map[string]string{"KEYWORDS": "dune"})
	v, err := New("")
	require.NoError(t, err)

	cfg, err := Load(v, secrets.Secrets{
		secrets.APIKey:         "from-file",
		secrets.SearchEngineID: "cx-file",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, "cx-file", cfg.SearchEngineID)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	setEnv(t, required())
	v, err := New("")
	require.NoError(t, err)

	cfg, err := Load(v, secrets.Secrets{secrets.APIKey: "from-file"})
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
}

func TestLoadSitesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ebook_sites.txt")
	content := "# ebook sites\narchive.org\nhttps://bad.example/\n\nOpenLibrary.org\narchive.org\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	env := required()
	env["SITES"] = "gutenberg.org"
	env["SITES_FILE"] = path
	cfg, err := load(t, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"gutenberg.org", "archive.org", "openlibrary.org"}, cfg.Sites)
}

func TestLoadSitesFileWithoutDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a domain\n"), 0o644))

	env := required()
	env["SITES_FILE"] = path
	_, err := load(t, env)

	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "no valid domains")
}

func TestNewReadsYAMLFile(t *testing.T) {
	setEnv(t, map[string]string{"API_KEY": "env-key"})
	path := filepath.Join(t.TempDir(), "ebook-search.yaml")
	yaml := `api_key: file-key
search_engine_id: cx-yaml
keywords:
  - dune
  - foundation
filetypes: pdf,epub
max_results_per_site: 7
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v, secrets.Secrets{})
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey, "environment wins over the file")
	assert.Equal(t, "cx-yaml", cfg.SearchEngineID)
	assert.Equal(t, []string{"dune", "foundation"}, cfg.Keywords)
	assert.Equal(t, []string{"pdf", "epub"}, cfg.Filetypes)
	assert.Equal(t, 7, cfg.MaxResultsPerSite)
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
}

func TestLoadDotEnv(t *testing.T) {
	setEnv(t, map[string]string{"API_KEY": "already-set"})
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_KEY=from-dotenv\nSEARCH_ENGINE_ID=cx-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SEARCH_ENGINE_ID") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "already-set", os.Getenv("API_KEY"))
	assert.Equal(t, "cx-dotenv", os.Getenv("SEARCH_ENGINE_ID"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
	assert.NoError(t, LoadDotEnv(""))
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Key: KeyAPIKey, Msg: "required"}
	assert.Equal(t, "config API_KEY: required", err.Error())

	wrapped := &ConfigError{Key: KeyQueryDelay, Msg: "invalid duration", Err: errors.New("boom")}
	assert.Equal(t, "config QUERY_DELAY: invalid duration: boom", wrapped.Error())
	assert.ErrorContains(t, errors.Unwrap(wrapped), "boom")
}
