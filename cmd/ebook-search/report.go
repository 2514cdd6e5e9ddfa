package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ebook-search/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		from    string
		output  string
		preview int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a saved run without querying the API",
		Long: `Report loads a run saved with "search --save", prints its summary and,
when --output is given, writes its results to CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return fmt.Errorf("--from is required")
			}
			rf, err := report.ReadRunFile(from)
			if err != nil {
				return err
			}
			a.log.WithField("file", from).Debug("loaded run")

			out := rf.Output()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run from %s\n\n", rf.Summary.Timestamp.Format("2006-01-02 15:04:05 MST"))
			report.PrintSummary(w, out, preview)

			if output == "" {
				return nil
			}
			return writeCSV(w, output, out)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "run file written by search --save")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the run's results to this CSV file")
	cmd.Flags().IntVar(&preview, "preview", report.DefaultPreview, "number of results shown in the console preview")

	return cmd
}
