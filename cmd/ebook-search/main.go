// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ebook-search CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ebook-search/internal/config"
	"github.com/pdiddy/ebook-search/internal/report"
	"github.com/pdiddy/ebook-search/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK          = 0
	exitError       = 1
	exitConfigError = 2
	exitIOError     = 3
)

// app holds state shared by subcommands once the root pre-run has finished.
type app struct {
	log     *logrus.Logger
	secrets secrets.Secrets

	cfgFile    string
	envFile    string
	secretsDir string
	logLevel   string
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{log: logrus.New()}
	a.log.SetOutput(stderr)

	root := &cobra.Command{
		Use:   "ebook-search",
		Short: "Search the web for ebooks and export the results to CSV",
		Long: `ebook-search queries the Google Custom Search API for every configured
keyword, site and file type combination, removes duplicate links and writes
the results to the console and a CSV file.

Settings come from the environment (API_KEY, SEARCH_ENGINE_ID, KEYWORDS,
FILETYPES, MAX_RESULTS_PER_SITE, SITES, SITES_FILE, QUERY_DELAY,
REQUEST_TIMEOUT, OUTPUT_FILE), a .env file and an optional YAML config file.
API_KEY and SEARCH_ENGINE_ID are read from --secrets-dir only when that flag
is given and the variables are unset.
Running without a subcommand is the same as "ebook-search search".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file (keys match the environment variables in lower case)")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flags.StringVar(&a.secretsDir, "secrets-dir", "", "directory holding api-key and search-engine-id files, used when API_KEY or SEARCH_ENGINE_ID is unset (e.g. "+secrets.DefaultDir+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL or info)")

	search := newSearchCmd(a)
	root.RunE = search.RunE
	root.Flags().AddFlagSet(search.Flags())

	root.AddCommand(search, newReportCmd(a), newVersionCmd())
	return root
}

// setup configures logging and loads the .env file and secrets directory.
func (a *app) setup() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return &config.ConfigError{Key: "env_file", Msg: "invalid dotenv file", Err: err}
	}

	level := a.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return &config.ConfigError{Key: "log_level", Msg: "invalid level", Err: err}
	}
	a.log.SetLevel(lvl)
	a.log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})

	if a.secretsDir == "" {
		a.secrets = secrets.Secrets{}
		return nil
	}
	s, err := secrets.Load(a.secretsDir, a.log)
	if err != nil {
		return err
	}
	a.secrets = s
	if len(s) > 0 {
		a.log.WithField("names", s.Names()).Debug("loaded secrets")
	}
	return nil
}

// exitCode maps an error returned by a command to the process exit status.
func exitCode(err error) int {
	var ce *config.ConfigError
	var ioErr *report.IOError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ce):
		return exitConfigError
	case errors.As(err, &ioErr):
		return exitIOError
	default:
		return exitError
	}
}

func main() {
	root := newRootCmd(os.Stderr)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(exitCode(err))
}
