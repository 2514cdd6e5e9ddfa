// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config builds the run configuration from environment variables,
// an optional YAML config file and the secrets directory.
package config

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/ebook-search/internal/secrets"
	"github.com/pdiddy/ebook-search/pkg/types"
)

// Keys are viper keys. With AutomaticEnv each one is also read from the
// upper-cased environment variable (api_key -> API_KEY).
const (
	KeyAPIKey         = "api_key"
	KeySearchEngineID = "search_engine_id"
	KeyKeywords       = "keywords"
	KeyFiletypes      = "filetypes"
	KeyMaxResults     = "max_results_per_site"
	KeySites          = "sites"
	KeySitesFile      = "sites_file"
	KeyQueryDelay     = "query_delay"
	KeyRequestTimeout = "request_timeout"
	KeyOutputFile     = "output_file"
)

// sitePattern matches bare domain names such as "archive.org".
var sitePattern = regexp.MustCompile(`^[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ConfigError reports a missing or invalid setting. It is fatal and is
// returned before any search request is made.
type ConfigError struct {
	Key string
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	name := strings.ToUpper(e.Key)
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", name, e.Msg, e.Err)
	}
	return fmt.Sprintf("config %s: %s", name, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// New returns a viper instance that reads the environment and, when cfgFile
// is set, the YAML file at that path. Environment variables win over the file.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	if cfgFile == "" {
		return v, nil
	}
	v.SetConfigFile(cfgFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Key: "config", Msg: "reading " + cfgFile, Err: err}
	}
	return v, nil
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads and validates the configuration. Values from v take precedence;
// the API key and search engine id fall back to sec when unset.
func Load(v *viper.Viper, sec secrets.Secrets) (types.Config, error) {
	cfg := types.Config{
		HTTPConfig: types.HTTPConfig{
			Timeout:   types.DefaultTimeout,
			UserAgent: types.DefaultUserAgent,
		},
		MaxResultsPerSite: types.DefaultMaxResultsPerSite,
		QueryDelay:        types.DefaultQueryDelay,
		OutputPath:        types.DefaultOutputPath,
	}

	cfg.APIKey = strings.TrimSpace(v.GetString(KeyAPIKey))
	if cfg.APIKey == "" {
		cfg.APIKey = sec.Get(secrets.APIKey)
	}
	if cfg.APIKey == "" {
		return cfg, &ConfigError{Key: KeyAPIKey, Msg: "required"}
	}

	cfg.SearchEngineID = strings.TrimSpace(v.GetString(KeySearchEngineID))
	if cfg.SearchEngineID == "" {
		cfg.SearchEngineID = sec.Get(secrets.SearchEngineID)
	}
	if cfg.SearchEngineID == "" {
		return cfg, &ConfigError{Key: KeySearchEngineID, Msg: "required"}
	}

	cfg.Keywords = List(v, KeyKeywords)
	if len(cfg.Keywords) == 0 {
		return cfg, &ConfigError{Key: KeyKeywords, Msg: "required"}
	}

	for _, ft := range List(v, KeyFiletypes) {
		if ft = strings.TrimPrefix(ft, "."); ft != "" {
			cfg.Filetypes = append(cfg.Filetypes, strings.ToLower(ft))
		}
	}
	cfg.Filetypes = unique(cfg.Filetypes)

	if raw := strings.TrimSpace(v.GetString(KeyMaxResults)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return cfg, &ConfigError{Key: KeyMaxResults, Msg: fmt.Sprintf("not a number: %q", raw)}
		}
		if n <= 0 {
			return cfg, &ConfigError{Key: KeyMaxResults, Msg: fmt.Sprintf("must be positive, got %d", n)}
		}
		cfg.MaxResultsPerSite = n
	}

	sites, err := loadSites(v)
	if err != nil {
		return cfg, err
	}
	cfg.Sites = sites

	if d, ok, err := duration(v, KeyQueryDelay); err != nil {
		return cfg, err
	} else if ok {
		cfg.QueryDelay = d
	}

	if d, ok, err := duration(v, KeyRequestTimeout); err != nil {
		return cfg, err
	} else if ok {
		if d == 0 {
			return cfg, &ConfigError{Key: KeyRequestTimeout, Msg: "must be positive"}
		}
		cfg.Timeout = d
	}

	if out := strings.TrimSpace(v.GetString(KeyOutputFile)); out != "" {
		cfg.OutputPath = out
	}

	return cfg, nil
}

// List returns the comma-separated value of key as a trimmed list with empty
// entries and duplicates removed. YAML sequences are accepted as well.
func List(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return unique(out)
}

// loadSites merges SITES with the domains listed in SITES_FILE.
func loadSites(v *viper.Viper) ([]string, error) {
	var sites []string
	for _, s := range List(v, KeySites) {
		if !sitePattern.MatchString(s) {
			return nil, &ConfigError{Key: KeySites, Msg: fmt.Sprintf("invalid domain %q", s)}
		}
		sites = append(sites, strings.ToLower(s))
	}

	path := strings.TrimSpace(v.GetString(KeySitesFile))
	if path == "" {
		return unique(sites), nil
	}
	fromFile, err := ReadSitesFile(path)
	if err != nil {
		return nil, &ConfigError{Key: KeySitesFile, Msg: "reading sites file", Err: err}
	}
	if len(fromFile) == 0 {
		return nil, &ConfigError{Key: KeySitesFile, Msg: fmt.Sprintf("no valid domains in %s", path)}
	}
	return unique(append(sites, fromFile...)), nil
}

// ReadSitesFile returns the lines of path that look like domain names, in
// file order. Other lines (comments, URLs with schemes, blanks) are skipped.
func ReadSitesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sites []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if sitePattern.MatchString(line) {
			sites = append(sites, strings.ToLower(line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return unique(sites), nil
}

func duration(v *viper.Viper, key string) (time.Duration, bool, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, false, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false, &ConfigError{Key: key, Msg: "invalid duration", Err: err}
	}
	if d < 0 {
		return 0, false, &ConfigError{Key: key, Msg: "must not be negative"}
	}
	return d, true, nil
}

// unique drops repeated entries, keeping the first occurrence.
func unique(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
