package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spineml2genn/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve read-only model inspection tools over MCP (stdio)",
		Long: `Start an MCP server on stdin/stdout exposing:
  spineml_resolve  files an experiment references
  spineml_status   whether the next run would recompile
  spineml_history  recent runs for the output directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelDir, _ := cmd.Flags().GetString("model")
			outputDir, _ := cmd.Flags().GetString("output")
			if modelDir == "" || outputDir == "" {
				return fmt.Errorf("model (-m) and output (-o) directories are required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only.
			_, closer := newLogger(cmd, cfg)
			defer closer.Close()

			server, err := mcp.NewServer(&mcp.Config{
				Name:      "spineml2genn",
				Version:   version,
				ModelDir:  modelDir,
				OutputDir: outputDir,
			})
			if err != nil {
				return err
			}
			defer server.Close()

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringP("model", "m", "", "Model source directory (required)")
	cmd.Flags().StringP("output", "o", "", "Output root directory (required)")

	return cmd
}
