package mcp

import "github.com/nvandessel/spineml2genn/internal/history"

// ResolveInput defines the input for the spineml_resolve tool.
type ResolveInput struct {
	Experiment int `json:"experiment,omitempty" jsonschema:"Experiment index N of experimentN.xml (default 0)"`
}

// ResolveOutput defines the output for the spineml_resolve tool.
type ResolveOutput struct {
	ExperimentFile string   `json:"experiment_file" jsonschema:"Experiment descriptor file name"`
	ModelFile      string   `json:"model_file" jsonschema:"Network model file the experiment references"`
	Components     []string `json:"components" jsonschema:"Distinct component files the model references"`
	Count          int      `json:"count" jsonschema:"Number of component files"`
}

// StatusInput defines the input for the spineml_status tool.
type StatusInput struct {
	Experiment int `json:"experiment,omitempty" jsonschema:"Experiment index N of experimentN.xml (default 0)"`
}

// StatusOutput defines the output for the spineml_status tool.
type StatusOutput struct {
	Experiment  int      `json:"experiment" jsonschema:"Experiment index that was checked"`
	Recompile   bool     `json:"recompile" jsonschema:"Whether the next run would need to regenerate code"`
	Reason      string   `json:"reason" jsonschema:"first-run, model-changed, inputs-changed or unchanged"`
	Changed     []string `json:"changed,omitempty" jsonschema:"Files that differ from the previous snapshot"`
	Message     string   `json:"message" jsonschema:"Human-readable summary"`
	SnapshotDir string   `json:"snapshot_dir" jsonschema:"Snapshot directory compared against"`
}

// HistoryInput defines the input for the spineml_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return, newest first (default 10)"`
}

// HistoryOutput defines the output for the spineml_history tool.
type HistoryOutput struct {
	Runs  []history.Run `json:"runs" jsonschema:"Recorded pipeline runs"`
	Count int           `json:"count" jsonschema:"Number of runs returned"`
}
