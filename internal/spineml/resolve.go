package spineml

import (
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/spineml2genn/internal/pathutil"
)

// References is the set of descriptor files one experiment needs.
type References struct {
	ExperimentFile string   `json:"experiment_file"`
	ModelFile      string   `json:"model_file"`
	Components     []string `json:"components"`
}

// Files returns every referenced file: components, then the model, then the experiment.
func (r *References) Files() []string {
	files := make([]string, 0, len(r.Components)+2)
	files = append(files, r.Components...)
	files = append(files, r.ModelFile, r.ExperimentFile)
	return files
}

// Resolve reads experiment<index>.xml from modelDir, follows it to the model
// descriptor and collects the component files that model references.
// Every referenced name must stay inside modelDir.
func Resolve(modelDir string, index int) (*References, error) {
	experimentFile := ExperimentFileName(index)

	expDoc, err := parseFile(modelDir, experimentFile, ParseExperiment)
	if err != nil {
		return nil, err
	}

	modelFile, err := expDoc.ModelFile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", experimentFile, err)
	}

	network, err := parseFile(modelDir, modelFile, ParseNetwork)
	if err != nil {
		return nil, err
	}

	components, err := network.ComponentFiles()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", modelFile, err)
	}

	for _, c := range components {
		if _, err := pathutil.JoinWithin(modelDir, c); err != nil {
			return nil, fmt.Errorf("%s: component %q: %w", modelFile, c, err)
		}
	}

	return &References{
		ExperimentFile: experimentFile,
		ModelFile:      modelFile,
		Components:     components,
	}, nil
}

func parseFile[T any](dir, name string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T

	path, err := pathutil.JoinWithin(dir, name)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	doc, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", name, err)
	}
	return doc, nil
}
