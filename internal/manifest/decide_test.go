package manifest

import (
	"slices"
	"testing"
)

func manifestOf(entries map[string]string) *Manifest {
	m := &Manifest{Entries: make(map[string]Entry)}
	for name, digest := range entries {
		if digest == "" {
			m.Entries[name] = Entry{Absent: true}
			continue
		}
		m.Entries[name] = Entry{Digest: digest, Size: int64(len(digest))}
	}
	return m
}

var scenarioInputs = Inputs{
	ModelFile:      "model.xml",
	ExperimentFile: "experiment0.xml",
	Components:     []string{"neuron_a.xml", "post_a.xml", "wu_a.xml"},
}

func baseline() map[string]string {
	return map[string]string{
		"model.xml":       "m1",
		"experiment0.xml": "e1",
		"neuron_a.xml":    "n1",
		"post_a.xml":      "p1",
		"wu_a.xml":        "w1",
	}
}

func with(base map[string]string, name, digest string) map[string]string {
	out := make(map[string]string, len(base))
	for k, v := range base {
		out[k] = v
	}
	out[name] = digest
	return out
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		staged        map[string]string
		previous      map[string]string
		noPrevious    bool
		wantRecompile bool
		wantReason    Reason
		wantChanged   []string
	}{
		{
			name:          "first run",
			staged:        baseline(),
			noPrevious:    true,
			wantRecompile: true,
			wantReason:    ReasonFirstRun,
		},
		{
			name:          "identical",
			staged:        baseline(),
			previous:      baseline(),
			wantRecompile: false,
			wantReason:    ReasonUnchanged,
		},
		{
			name:          "model changed short-circuits",
			staged:        with(with(baseline(), "model.xml", "m2"), "neuron_a.xml", "n2"),
			previous:      baseline(),
			wantRecompile: true,
			wantReason:    ReasonModelChanged,
			wantChanged:   []string{"model.xml"},
		},
		{
			name:          "only model changed",
			staged:        with(baseline(), "model.xml", "m2"),
			previous:      baseline(),
			wantRecompile: true,
			wantReason:    ReasonModelChanged,
			wantChanged:   []string{"model.xml"},
		},
		{
			name:          "experiment changed",
			staged:        with(baseline(), "experiment0.xml", "e2"),
			previous:      baseline(),
			wantRecompile: true,
			wantReason:    ReasonInputsChanged,
			wantChanged:   []string{"experiment0.xml"},
		},
		{
			name:          "two components changed",
			staged:        with(with(baseline(), "wu_a.xml", "w2"), "neuron_a.xml", "n2"),
			previous:      baseline(),
			wantRecompile: true,
			wantReason:    ReasonInputsChanged,
			wantChanged:   []string{"neuron_a.xml", "wu_a.xml"},
		},
		{
			name:          "component missing from snapshot",
			staged:        baseline(),
			previous:      with(baseline(), "post_a.xml", ""),
			wantRecompile: true,
			wantReason:    ReasonInputsChanged,
			wantChanged:   []string{"post_a.xml"},
		},
		{
			name:          "model missing from snapshot",
			staged:        baseline(),
			previous:      with(baseline(), "model.xml", ""),
			wantRecompile: true,
			wantReason:    ReasonModelChanged,
			wantChanged:   []string{"model.xml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var previous *Manifest
			if !tt.noPrevious {
				previous = manifestOf(tt.previous)
			}

			got := Decide(manifestOf(tt.staged), previous, scenarioInputs)

			if got.Recompile != tt.wantRecompile {
				t.Errorf("Recompile = %v, want %v", got.Recompile, tt.wantRecompile)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if !slices.Equal(got.Changed, tt.wantChanged) {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestDecision_Message(t *testing.T) {
	if got := (Decision{Recompile: true}).Message(); got != "Recompiling model..." {
		t.Errorf("Message() = %q", got)
	}
	if got := (Decision{}).Message(); got != "Model has not changed - no recompile required" {
		t.Errorf("Message() = %q", got)
	}
}

func TestInputs_Files(t *testing.T) {
	want := []string{"neuron_a.xml", "post_a.xml", "wu_a.xml", "model.xml", "experiment0.xml"}
	if got := scenarioInputs.Files(); !slices.Equal(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}
