package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/ebook-search/internal/aggregate"
	"github.com/pdiddy/ebook-search/internal/config"
	"github.com/pdiddy/ebook-search/internal/query"
	"github.com/pdiddy/ebook-search/internal/report"
	"github.com/pdiddy/ebook-search/internal/search"
	"github.com/pdiddy/ebook-search/internal/store"
	"github.com/pdiddy/ebook-search/pkg/types"
)

type searchOptions struct {
	output   string
	save     string
	db       string
	preview  int
	endpoint string
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run every configured query and write the results",
		Long: `Search builds one query per keyword (and per site and file type when
configured), pages through the API up to MAX_RESULTS_PER_SITE results per
query, removes duplicate links and prints a summary. The results are then
written to the CSV output file, replacing any previous file. A failing query
is reported and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "CSV output path (default from OUTPUT_FILE or "+types.DefaultOutputPath+")")
	cmd.Flags().StringVar(&opts.save, "save", "", "also save the run as YAML for the report command")
	cmd.Flags().StringVar(&opts.db, "db", "", "also export the run to a SQLite database")
	cmd.Flags().IntVar(&opts.preview, "preview", report.DefaultPreview, "number of results shown in the console preview")
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", search.DefaultBaseURL, "search API endpoint")
	cmd.Flags().MarkHidden("endpoint")

	return cmd
}

func (a *app) runSearch(cmd *cobra.Command, opts searchOptions) error {
	v, err := config.New(a.cfgFile)
	if err != nil {
		return err
	}
	cfg, err := config.Load(v, a.secrets)
	if err != nil {
		return err
	}
	if opts.output != "" {
		cfg.OutputPath = opts.output
	}

	if cfg.MaxResultsPerSite > search.APIResultLimit {
		a.log.Warnf("MAX_RESULTS_PER_SITE %d exceeds the API limit; using %d",
			cfg.MaxResultsPerSite, search.APIResultLimit)
	}

	client := search.NewClient(cfg, a.log)
	client.BaseURL = opts.endpoint

	a.log.WithFields(logrus.Fields{
		"keywords":  cfg.Keywords,
		"filetypes": cfg.Filetypes,
		"sites":     len(cfg.Sites),
		"queries":   query.Count(cfg.Keywords, cfg.Sites, cfg.Filetypes),
	}).Info("starting search")

	out := aggregate.Run(cmd.Context(), query.Build(cfg.Keywords, cfg.Sites, cfg.Filetypes), client,
		aggregate.Options{Delay: cfg.QueryDelay, Log: a.log})

	return a.writeOutputs(cmd, cfg, out, opts)
}

// writeOutputs prints the summary before touching the filesystem so results
// are visible even when a file cannot be written. The CSV is written first;
// a failed run file or database export is reported without losing it.
func (a *app) writeOutputs(cmd *cobra.Command, cfg types.Config, out aggregate.Output, opts searchOptions) error {
	w := cmd.OutOrStdout()
	report.PrintSummary(w, out, opts.preview)

	if err := writeCSV(w, cfg.OutputPath, out); err != nil {
		return err
	}

	var errs []error
	if opts.save != "" {
		if err := report.WriteRunFile(opts.save, report.NewRunFile(cfg, out, time.Now())); err != nil {
			errs = append(errs, err)
		} else {
			fmt.Fprintf(w, "Run saved to %s\n", opts.save)
		}
	}

	if opts.db != "" {
		if err := exportDB(cmd, opts.db, out); err != nil {
			errs = append(errs, &report.IOError{Path: opts.db, Err: err})
		} else {
			fmt.Fprintf(w, "Results exported to %s\n", opts.db)
		}
	}

	return errors.Join(errs...)
}

func writeCSV(w io.Writer, path string, out aggregate.Output) error {
	if err := report.WriteCSV(path, out.Results); err != nil {
		return err
	}
	fmt.Fprintf(w, "Results saved to %s (%d rows)\n", path, len(out.Results))
	return nil
}

func exportDB(cmd *cobra.Command, path string, out aggregate.Output) error {
	s, err := store.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.ReplaceRun(cmd.Context(), out)
}
