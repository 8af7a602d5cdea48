package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/spineml2genn/internal/pipeline"
	"github.com/nvandessel/spineml2genn/internal/toolchain"
	"github.com/nvandessel/spineml2genn/internal/watch"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Stage a SpineML experiment, generate code and simulate",
		Long: `Resolve experiment<N>.xml in the model directory, copy it with its model,
components and .bin data into <output>/model, compare against the previous
snapshot in <output>/model/prev, then run generateSpineML and simulateSpineML.

Examples:
  spineml2genn run -m ./model -o ./out -e 0
  spineml2genn run -m ./model -o ./out -e 1 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd)
			if err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, closer := newLogger(cmd, cfg)
			defer closer.Close()

			p := pipeline.New(cfg, toolchain.ExecRunner{}, logger)
			out := cmd.OutOrStdout()
			jsonOut := jsonOutput(cmd)

			watchMode, _ := cmd.Flags().GetBool("watch")
			if !watchMode {
				result, err := p.Run(cmd.Context(), opts)
				if result != nil {
					if perr := printResult(out, jsonOut, result); perr != nil {
						return perr
					}
				}
				return err
			}

			outputDir, err := filepath.Abs(opts.OutputDir)
			if err != nil {
				return err
			}
			w := &watch.Watcher{
				Dir:      opts.ModelDir,
				Debounce: cfg.Watch.Debounce,
				Exclude:  []string{outputDir},
				Logger:   logger,
			}
			logger.Info("watching model directory", "dir", opts.ModelDir, "debounce", cfg.Watch.Debounce)
			return w.Run(cmd.Context(), func(ctx context.Context, changed []string) error {
				result, err := p.Run(ctx, opts)
				if result != nil {
					if perr := printResult(out, jsonOut, result); perr != nil {
						return perr
					}
				}
				return err
			})
		},
	}

	cmd.Flags().StringP("workdir", "w", "", "Working directory (accepted, unused)")
	cmd.Flags().StringP("model", "m", "", "Model source directory (required)")
	cmd.Flags().StringP("output", "o", "", "Output root directory (required)")
	cmd.Flags().IntP("experiment", "e", 0, "Experiment index N of experimentN.xml (required)")
	cmd.Flags().StringP("properties", "p", "", "Property override string (accepted, unused)")
	cmd.Flags().StringP("delays", "d", "", "Delay override string (accepted, unused)")
	cmd.Flags().StringP("currents", "c", "", "Constant current override string (accepted, unused)")
	cmd.Flags().StringP("time-varying", "t", "", "Time-varying current override string (accepted, unused)")
	cmd.Flags().Bool("watch", false, "Rerun whenever the model directory changes")

	return cmd
}

// runOptions maps the run flags onto pipeline options.
func runOptions(cmd *cobra.Command) (pipeline.Options, error) {
	opts, err := targetOptions(cmd)
	if err != nil {
		return opts, err
	}
	f := cmd.Flags()
	opts.WorkDir, _ = f.GetString("workdir")
	opts.Overrides.Properties, _ = f.GetString("properties")
	opts.Overrides.Delays, _ = f.GetString("delays")
	opts.Overrides.ConstantCurrents, _ = f.GetString("currents")
	opts.Overrides.TimeVaryingCurrents, _ = f.GetString("time-varying")
	return opts, nil
}

// targetOptions reads -m, -o and -e. An experiment index that was never set
// stays nil so validation can report it.
func targetOptions(cmd *cobra.Command) (pipeline.Options, error) {
	f := cmd.Flags()
	opts := pipeline.Options{}
	opts.ModelDir, _ = f.GetString("model")
	opts.OutputDir, _ = f.GetString("output")

	if f.Changed("experiment") {
		e, err := f.GetInt("experiment")
		if err != nil {
			return opts, err
		}
		opts.Experiment = &e
	}
	return opts, nil
}

func printResult(w io.Writer, jsonOut bool, r *pipeline.Result) error {
	if jsonOut {
		return writeJSON(w, r)
	}

	if r.Decision != nil {
		fmt.Fprintf(w, "Decision:  %s\n", r.Decision.Reason)
		for _, c := range r.Decision.Changed {
			fmt.Fprintf(w, "  changed: %s\n", c)
		}
	}
	fmt.Fprintf(w, "Generated: %v\n", r.Generated)
	fmt.Fprintf(w, "Simulated: %v\n", r.Simulated)
	fmt.Fprintf(w, "State:     %s\n", r.State)
	return nil
}
