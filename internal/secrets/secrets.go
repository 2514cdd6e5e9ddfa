// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files.
// The file name is the key and the trimmed file contents are the value.
//
// Recognized files: api-key, search-engine-id.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultDir is where the CLI looks for secret files.
	DefaultDir = ".secrets"

	APIKey         = "api-key"
	SearchEngineID = "search-engine-id"
)

// Secrets maps secret names to values.
type Secrets map[string]string

// Get returns the value for name, or "" when it was not loaded.
func (s Secrets) Get(name string) string {
	return s[name]
}

// Names returns the loaded secret names without their values.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	return names
}

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error. Unreadable and empty files are skipped; unreadable ones are
// logged at warning level.
func Load(dir string, log logrus.FieldLogger) (Secrets, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	out := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.WithField("secret", name).Warnf("could not read secret: %v", err)
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			out[name] = value
		}
	}
	return out, nil
}
