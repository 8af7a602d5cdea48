package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spineml2genn/internal/history"
	"github.com/nvandessel/spineml2genn/internal/staging"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs for an output directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output")
			if outputDir == "" {
				return fmt.Errorf("output directory (-o) is required")
			}
			limit, _ := cmd.Flags().GetInt("limit")

			stateDir := staging.Layout{Root: outputDir}.StateDir()
			if _, err := os.Stat(filepath.Join(stateDir, history.FileName)); os.IsNotExist(err) {
				return fmt.Errorf("no run history in %s", outputDir)
			}

			ledger, err := history.Open(cmd.Context(), stateDir)
			if err != nil {
				return err
			}
			defer ledger.Close()

			runs, err := ledger.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(out, runs)
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tEXP\tREASON\tGENERATED\tSTATE\tDURATION\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%v\t%s\t%s\t%s\n",
					r.ID, r.StartedAt.Local().Format(time.DateTime), r.Experiment, r.Reason,
					r.Generated, r.State, r.Duration().Round(time.Millisecond), r.Error)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output root directory (required)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 for all)")

	return cmd
}
