// Package spineml reads SpineML experiment and network descriptors and resolves the
// component files a simulation run depends on.
//
// Elements are matched by local name. The namespaces of the experiment layer
// (http://www.shef.ac.uk/SpineMLExperimentLayer) and the low-level network layer
// (http://www.shef.ac.uk/SpineMLLowLevelNetworkLayer) are not enforced.
package spineml

import (
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
)

// SpikeSource is the built-in neuron type. A population using it has no component file.
const SpikeSource = "SpikeSource"

// ExperimentFileName returns the descriptor name for an experiment index.
func ExperimentFileName(index int) string {
	return "experiment" + strconv.Itoa(index) + ".xml"
}

// ExperimentDocument is the root of an experiment descriptor. The root element
// name is not checked.
type ExperimentDocument struct {
	Experiments []Experiment `xml:"Experiment"`
}

// Experiment describes one simulation run.
type Experiment struct {
	Name  string    `xml:"name,attr"`
	Model *ModelRef `xml:"Model"`
}

// ModelRef points at the network descriptor.
type ModelRef struct {
	NetworkLayerURL string `xml:"network_layer_url,attr"`
}

// Network is the root of a low-level network descriptor.
type Network struct {
	Populations []Population `xml:"Population"`
}

// Population groups neurons of one component type and the projections leaving it.
type Population struct {
	Neuron      *Neuron      `xml:"Neuron"`
	Projections []Projection `xml:"Projection"`
}

// Neuron references the neuron component of a population.
type Neuron struct {
	Name string `xml:"name,attr"`
	URL  string `xml:"url,attr"`
}

// Projection connects a population to a destination population.
type Projection struct {
	DstPopulation string   `xml:"dst_population,attr"`
	Synapse       *Synapse `xml:"Synapse"`
}

// Synapse holds the weight-update and post-synapse components of a projection.
type Synapse struct {
	WeightUpdate *ComponentRef `xml:"WeightUpdate"`
	PostSynapse  *ComponentRef `xml:"PostSynapse"`
}

// ComponentRef references a component file by url.
type ComponentRef struct {
	Name string `xml:"name,attr"`
	URL  string `xml:"url,attr"`
}

// ParseExperiment decodes an experiment descriptor.
func ParseExperiment(r io.Reader) (*ExperimentDocument, error) {
	var doc ExperimentDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse experiment descriptor: %w", err)
	}
	return &doc, nil
}

// ModelFile returns the network descriptor referenced by the first experiment.
func (d *ExperimentDocument) ModelFile() (string, error) {
	if len(d.Experiments) == 0 {
		return "", fmt.Errorf("%w: Experiment", ErrMissingElement)
	}
	exp := d.Experiments[0]
	if exp.Model == nil {
		return "", fmt.Errorf("%w: Experiment/Model", ErrMissingElement)
	}
	if exp.Model.NetworkLayerURL == "" {
		return "", fmt.Errorf("%w: Experiment/Model@network_layer_url", ErrMissingReference)
	}
	return exp.Model.NetworkLayerURL, nil
}

// ParseNetwork decodes a low-level network descriptor.
func ParseNetwork(r io.Reader) (*Network, error) {
	var doc Network
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse model descriptor: %w", err)
	}
	return &doc, nil
}

// ComponentFiles returns the distinct component files referenced by every population
// and projection, sorted by name. Neurons of type SpikeSource contribute nothing, but
// their projections still do.
func (n *Network) ComponentFiles() ([]string, error) {
	set := make(map[string]struct{})

	for i, pop := range n.Populations {
		if pop.Neuron == nil {
			return nil, fmt.Errorf("%w: Population[%d]/Neuron", ErrMissingElement, i)
		}
		if pop.Neuron.URL == "" {
			return nil, fmt.Errorf("%w: Population[%d]/Neuron@url", ErrMissingReference, i)
		}
		if pop.Neuron.URL != SpikeSource {
			set[pop.Neuron.URL] = struct{}{}
		}

		for j, proj := range pop.Projections {
			where := fmt.Sprintf("Population[%d]/Projection[%d]", i, j)
			if proj.Synapse == nil {
				return nil, fmt.Errorf("%w: %s/Synapse", ErrMissingElement, where)
			}
			wu, err := componentURL(proj.Synapse.WeightUpdate, where+"/Synapse/WeightUpdate")
			if err != nil {
				return nil, err
			}
			ps, err := componentURL(proj.Synapse.PostSynapse, where+"/Synapse/PostSynapse")
			if err != nil {
				return nil, err
			}
			set[wu] = struct{}{}
			set[ps] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set)), nil
}

func componentURL(ref *ComponentRef, where string) (string, error) {
	if ref == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingElement, where)
	}
	if ref.URL == "" {
		return "", fmt.Errorf("%w: %s@url", ErrMissingReference, where)
	}
	return ref.URL, nil
}
