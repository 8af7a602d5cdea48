package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spineml2genn/internal/spineml"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "List the files an experiment references",
		RunE: func(cmd *cobra.Command, args []string) error {
			modelDir, _ := cmd.Flags().GetString("model")
			if modelDir == "" {
				return fmt.Errorf("model directory (-m) is required")
			}
			experiment, _ := cmd.Flags().GetInt("experiment")

			refs, err := spineml.Resolve(modelDir, experiment)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return writeJSON(out, refs)
			}
			fmt.Fprintf(out, "Experiment: %s\n", refs.ExperimentFile)
			fmt.Fprintf(out, "Model:      %s\n", refs.ModelFile)
			fmt.Fprintf(out, "Components (%d):\n", len(refs.Components))
			for _, c := range refs.Components {
				fmt.Fprintf(out, "  %s\n", c)
			}
			return nil
		},
	}

	cmd.Flags().StringP("model", "m", "", "Model source directory (required)")
	cmd.Flags().IntP("experiment", "e", 0, "Experiment index")

	return cmd
}
