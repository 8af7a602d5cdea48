package spineml

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestExperimentFileName(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "experiment0.xml"},
		{3, "experiment3.xml"},
		{12, "experiment12.xml"},
	}
	for _, tt := range tests {
		if got := ExperimentFileName(tt.index); got != tt.want {
			t.Errorf("ExperimentFileName(%d) = %q, want %q", tt.index, got, tt.want)
		}
	}
}

func TestParseExperiment_ModelFile(t *testing.T) {
	doc, err := ParseExperiment(strings.NewReader(`
<SpineML xmlns="http://www.shef.ac.uk/SpineMLExperimentLayer">
  <Experiment name="first"><Model network_layer_url="model.xml"/></Experiment>
  <Experiment name="second"><Model network_layer_url="other.xml"/></Experiment>
</SpineML>`))
	if err != nil {
		t.Fatalf("ParseExperiment() error = %v", err)
	}

	got, err := doc.ModelFile()
	if err != nil {
		t.Fatalf("ModelFile() error = %v", err)
	}
	if got != "model.xml" {
		t.Errorf("ModelFile() = %q, want model.xml (first experiment wins)", got)
	}
}

func TestParseExperiment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		xml     string
		wantErr error
	}{
		{"no experiment", `<SpineML/>`, ErrMissingElement},
		{"no model", `<SpineML><Experiment/></SpineML>`, ErrMissingElement},
		{"no url", `<SpineML><Experiment><Model/></Experiment></SpineML>`, ErrMissingReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseExperiment(strings.NewReader(tt.xml))
			if err != nil {
				t.Fatalf("ParseExperiment() error = %v", err)
			}
			if _, err := doc.ModelFile(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ModelFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseExperiment_Malformed(t *testing.T) {
	if _, err := ParseExperiment(strings.NewReader(`<SpineML><Experiment>`)); err == nil {
		t.Error("expected parse error for truncated document")
	}
}

func TestComponentFiles_Scenario(t *testing.T) {
	network, err := ParseNetwork(strings.NewReader(`
<LL:SpineML xmlns:LL="http://www.shef.ac.uk/SpineMLLowLevelNetworkLayer">
  <LL:Population>
    <LL:Neuron name="Input" url="SpikeSource"/>
    <LL:Projection dst_population="Exc">
      <LL:Synapse>
        <LL:WeightUpdate url="wu_a.xml"/>
        <LL:PostSynapse url="post_a.xml"/>
      </LL:Synapse>
    </LL:Projection>
  </LL:Population>
  <LL:Population>
    <LL:Neuron name="Exc" url="neuron_a.xml"/>
  </LL:Population>
</LL:SpineML>`))
	if err != nil {
		t.Fatalf("ParseNetwork() error = %v", err)
	}

	got, err := network.ComponentFiles()
	if err != nil {
		t.Fatalf("ComponentFiles() error = %v", err)
	}
	want := []string{"neuron_a.xml", "post_a.xml", "wu_a.xml"}
	if !slices.Equal(got, want) {
		t.Errorf("ComponentFiles() = %v, want %v", got, want)
	}
}

func TestComponentFiles_Deduplicates(t *testing.T) {
	network := &Network{Populations: []Population{
		{
			Neuron: &Neuron{URL: "izh.xml"},
			Projections: []Projection{
				{Synapse: &Synapse{WeightUpdate: &ComponentRef{URL: "wu.xml"}, PostSynapse: &ComponentRef{URL: "post.xml"}}},
				{Synapse: &Synapse{WeightUpdate: &ComponentRef{URL: "wu.xml"}, PostSynapse: &ComponentRef{URL: "post.xml"}}},
			},
		},
		{
			Neuron: &Neuron{URL: "izh.xml"},
			Projections: []Projection{
				{Synapse: &Synapse{WeightUpdate: &ComponentRef{URL: "wu.xml"}, PostSynapse: &ComponentRef{URL: "izh.xml"}}},
			},
		},
	}}

	got, err := network.ComponentFiles()
	if err != nil {
		t.Fatalf("ComponentFiles() error = %v", err)
	}
	want := []string{"izh.xml", "post.xml", "wu.xml"}
	if !slices.Equal(got, want) {
		t.Errorf("ComponentFiles() = %v, want %v", got, want)
	}
}

func TestComponentFiles_SpikeSourceOnly(t *testing.T) {
	network := &Network{Populations: []Population{{Neuron: &Neuron{URL: SpikeSource}}}}

	got, err := network.ComponentFiles()
	if err != nil {
		t.Fatalf("ComponentFiles() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ComponentFiles() = %v, want empty", got)
	}
}

func TestComponentFiles_EmptyNetwork(t *testing.T) {
	got, err := (&Network{}).ComponentFiles()
	if err != nil {
		t.Fatalf("ComponentFiles() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ComponentFiles() = %v, want empty", got)
	}
}

func TestComponentFiles_MissingReferences(t *testing.T) {
	synapse := func(wu, ps *ComponentRef) []Projection {
		return []Projection{{Synapse: &Synapse{WeightUpdate: wu, PostSynapse: ps}}}
	}
	ok := &ComponentRef{URL: "c.xml"}

	tests := []struct {
		name    string
		pop     Population
		wantErr error
		where   string
	}{
		{"no neuron", Population{}, ErrMissingElement, "Population[0]/Neuron"},
		{"neuron without url", Population{Neuron: &Neuron{Name: "x"}}, ErrMissingReference, "Neuron@url"},
		{"no synapse", Population{Neuron: &Neuron{URL: "n.xml"}, Projections: []Projection{{}}}, ErrMissingElement, "Projection[0]/Synapse"},
		{"no weight update", Population{Neuron: &Neuron{URL: "n.xml"}, Projections: synapse(nil, ok)}, ErrMissingElement, "WeightUpdate"},
		{"post synapse without url", Population{Neuron: &Neuron{URL: "n.xml"}, Projections: synapse(ok, &ComponentRef{})}, ErrMissingReference, "PostSynapse@url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			network := &Network{Populations: []Population{tt.pop}}
			_, err := network.ComponentFiles()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ComponentFiles() error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.where) {
				t.Errorf("error %q should name %q", err, tt.where)
			}
		})
	}
}
