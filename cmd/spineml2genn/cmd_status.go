package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spineml2genn/internal/manifest"
	"github.com/nvandessel/spineml2genn/internal/spineml"
	"github.com/nvandessel/spineml2genn/internal/staging"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the next run would recompile, without staging anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := targetOptions(cmd)
			if err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			refs, err := spineml.Resolve(opts.ModelDir, *opts.Experiment)
			if err != nil {
				return err
			}

			layout := staging.Layout{Root: opts.OutputDir}
			decision, _, err := manifest.Detect(opts.ModelDir, layout.SnapshotDir(), manifest.Inputs{
				ModelFile:      refs.ModelFile,
				ExperimentFile: refs.ExperimentFile,
				Components:     refs.Components,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, decision)
			}
			fmt.Fprintln(out, decision.Message())
			fmt.Fprintf(out, "Reason: %s\n", decision.Reason)
			for _, c := range decision.Changed {
				fmt.Fprintf(out, "  changed: %s\n", c)
			}
			return nil
		},
	}

	cmd.Flags().StringP("model", "m", "", "Model source directory (required)")
	cmd.Flags().StringP("output", "o", "", "Output root directory (required)")
	cmd.Flags().IntP("experiment", "e", 0, "Experiment index N of experimentN.xml (required)")

	return cmd
}
