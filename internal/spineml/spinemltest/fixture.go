// Package spinemltest writes small SpineML models to disk for tests.
package spinemltest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// ExperimentXML returns an experiment descriptor pointing at modelFile.
func ExperimentXML(modelFile string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<SpineML xmlns="http://www.shef.ac.uk/SpineMLExperimentLayer">
  <Experiment name="Experiment 0">
    <Model network_layer_url=%q/>
    <Simulation duration="1" preferred_simulator="GeNN">
      <EulerIntegration dt="0.1"/>
    </Simulation>
  </Experiment>
</SpineML>
`, modelFile)
}

// ModelXML is a network with a spike source projecting onto an Izhikevich population.
const ModelXML = `<?xml version="1.0" encoding="UTF-8"?>
<LL:SpineML xmlns="http://www.shef.ac.uk/SpineMLNetworkLayer" xmlns:LL="http://www.shef.ac.uk/SpineMLLowLevelNetworkLayer" name="scenario">
  <LL:Population>
    <LL:Neuron name="Input" size="10" url="SpikeSource"/>
    <LL:Projection dst_population="Excitatory">
      <LL:Synapse>
        <AllToAllConnection/>
        <LL:WeightUpdate name="Input to Excitatory Synapse 0 weight_update" url="wu_a.xml"/>
        <LL:PostSynapse name="Input to Excitatory Synapse 0 postsynapse" url="post_a.xml"/>
      </LL:Synapse>
    </LL:Projection>
  </LL:Population>
  <LL:Population>
    <LL:Neuron name="Excitatory" size="100" url="neuron_a.xml"/>
  </LL:Population>
</LL:SpineML>
`

// Components maps every component of ModelXML to its file content.
var Components = map[string]string{
	"neuron_a.xml": "<SpineML><ComponentClass name=\"Izhikevich\" type=\"neuron_body\"/></SpineML>\n",
	"wu_a.xml":     "<SpineML><ComponentClass name=\"FixedWeight\" type=\"weight_update\"/></SpineML>\n",
	"post_a.xml":   "<SpineML><ComponentClass name=\"CurrentInjection\" type=\"postsynapse\"/></SpineML>\n",
}

// Write creates experiment<index>.xml, model.xml and the component files in dir.
func Write(t testing.TB, dir string, index int) {
	t.Helper()
	WriteFile(t, dir, fmt.Sprintf("experiment%d.xml", index), ExperimentXML("model.xml"))
	WriteFile(t, dir, "model.xml", ModelXML)
	for name, content := range Components {
		WriteFile(t, dir, name, content)
	}
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
