package pipeline

import (
	"errors"
	"log/slog"
)

var (
	// ErrMissingModelDir is returned when -m is not given.
	ErrMissingModelDir = errors.New("model directory (-m) is required")
	// ErrMissingOutputDir is returned when -o is not given.
	ErrMissingOutputDir = errors.New("output directory (-o) is required")
	// ErrMissingExperiment is returned when -e is not given.
	ErrMissingExperiment = errors.New("experiment index (-e) is required")
	// ErrInvalidExperiment is returned for a negative experiment index.
	ErrInvalidExperiment = errors.New("experiment index must be non-negative")
	// ErrModelInStaging is returned when the model directory is the output's
	// staging or snapshot directory, which staging would overwrite.
	ErrModelInStaging = errors.New("model directory is inside the output staging directory")
)

// Overrides are the simulator override strings. They are carried through a run
// and logged, but nothing downstream consumes them yet.
type Overrides struct {
	Properties          string `json:"properties,omitempty"`           // -p
	Delays              string `json:"delays,omitempty"`               // -d
	ConstantCurrents    string `json:"constant_currents,omitempty"`    // -c
	TimeVaryingCurrents string `json:"time_varying_currents,omitempty"` // -t
}

// IsZero reports whether no override was given.
func (o Overrides) IsZero() bool {
	return o == Overrides{}
}

// LogValue groups the overrides in log records.
func (o Overrides) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("properties", o.Properties),
		slog.String("delays", o.Delays),
		slog.String("constant_currents", o.ConstantCurrents),
		slog.String("time_varying_currents", o.TimeVaryingCurrents),
	)
}

// Options are the per-run arguments.
type Options struct {
	// WorkDir is accepted for compatibility and logged; it does not change where files go.
	WorkDir   string
	ModelDir  string
	OutputDir string
	// Experiment is the experiment index; nil means it was not given.
	Experiment *int
	Overrides  Overrides
}

// Validate checks that the required arguments are present.
func (o Options) Validate() error {
	if o.ModelDir == "" {
		return ErrMissingModelDir
	}
	if o.OutputDir == "" {
		return ErrMissingOutputDir
	}
	if o.Experiment == nil {
		return ErrMissingExperiment
	}
	if *o.Experiment < 0 {
		return ErrInvalidExperiment
	}
	return nil
}
