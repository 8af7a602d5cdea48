package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return writeJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"go":      runtime.Version(),
					"os":      runtime.GOOS,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "spineml2genn version %s (%s, %s)\n", version, runtime.Version(), runtime.GOOS)
			return nil
		},
	}
}
