package manifest

import "fmt"

// Reason explains a Decision.
type Reason string

const (
	// ReasonFirstRun means there is no previous snapshot.
	ReasonFirstRun Reason = "first-run"
	// ReasonModelChanged means the model descriptor differs from the snapshot.
	ReasonModelChanged Reason = "model-changed"
	// ReasonInputsChanged means the experiment or a component differs.
	ReasonInputsChanged Reason = "inputs-changed"
	// ReasonUnchanged means every compared file is byte-identical.
	ReasonUnchanged Reason = "unchanged"
)

// Inputs names the files a decision compares.
type Inputs struct {
	ModelFile      string
	ExperimentFile string
	Components     []string
}

// Files returns every input file name.
func (in Inputs) Files() []string {
	files := make([]string, 0, len(in.Components)+2)
	files = append(files, in.Components...)
	return append(files, in.ModelFile, in.ExperimentFile)
}

// Decision is the outcome of change detection.
type Decision struct {
	Recompile bool     `json:"recompile"`
	Reason    Reason   `json:"reason"`
	Changed   []string `json:"changed,omitempty"`
}

// Message is the line printed to the terminal for d.
func (d Decision) Message() string {
	if d.Recompile {
		return "Recompiling model..."
	}
	return "Model has not changed - no recompile required"
}

func (d Decision) String() string {
	return fmt.Sprintf("%s (recompile=%t, changed=%v)", d.Reason, d.Recompile, d.Changed)
}

// Decide compares the staged manifest with the previous snapshot's manifest.
//
// With no previous manifest the model must be built. A changed model file short-circuits
// the comparison: the experiment and components may belong to a different model, so only
// the model is reported. Otherwise every differing experiment or component file is listed.
func Decide(staged, previous *Manifest, in Inputs) Decision {
	if previous == nil {
		return Decision{Recompile: true, Reason: ReasonFirstRun}
	}

	if !staged.Same(previous, in.ModelFile) {
		return Decision{Recompile: true, Reason: ReasonModelChanged, Changed: []string{in.ModelFile}}
	}

	var changed []string
	if !staged.Same(previous, in.ExperimentFile) {
		changed = append(changed, in.ExperimentFile)
	}
	for _, c := range in.Components {
		if !staged.Same(previous, c) {
			changed = append(changed, c)
		}
	}

	if len(changed) > 0 {
		return Decision{Recompile: true, Reason: ReasonInputsChanged, Changed: changed}
	}
	return Decision{Recompile: false, Reason: ReasonUnchanged}
}

// Detect builds manifests for stagingDir and snapshotDir and decides between them.
// A missing snapshotDir is a first run.
func Detect(stagingDir, snapshotDir string, in Inputs) (Decision, *Manifest, error) {
	files := in.Files()

	staged, err := Build(stagingDir, files)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("failed to build staged manifest: %w", err)
	}
	if staged == nil {
		return Decision{}, nil, fmt.Errorf("staging directory %s does not exist", stagingDir)
	}

	previous, err := Build(snapshotDir, files)
	if err != nil {
		return Decision{}, nil, fmt.Errorf("failed to build snapshot manifest: %w", err)
	}

	return Decide(staged, previous, in), staged, nil
}
