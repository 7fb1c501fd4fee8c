package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/iafilius/AdaptivePolling/src/results"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var file string
	root := &cobra.Command{
		Use:          "resultsreader",
		Short:        "Summarize a results table (row count and per-column range)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := results.Load(file)
			if err != nil {
				return err
			}
			return summarize(stdout, tbl)
		},
	}
	root.Flags().StringVar(&file, "file", results.DefaultResultsFile, "Path to results.csv")
	return root
}

func summarize(w io.Writer, tbl *results.Table) error {
	fmt.Fprintf(w, "Total rows: %d\n", tbl.Len())
	for _, col := range results.Header {
		if !tbl.HasColumn(col) {
			continue
		}
		vals, err := tbl.Column(col)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			fmt.Fprintf(w, "%s: (empty)\n", col)
			continue
		}
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, v := range vals {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
			sum += v
		}
		fmt.Fprintf(w, "%s: min=%.3f max=%.3f mean=%.3f\n", col, lo, hi, sum/float64(len(vals)))
	}
	return nil
}
