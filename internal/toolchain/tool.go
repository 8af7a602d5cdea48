// Package toolchain locates, builds, and runs the GeNN SpineML executables.
package toolchain

import (
	"path/filepath"
)

// Tool identifies one of the two GeNN SpineML executables.
type Tool int

const (
	// Generator turns a staged experiment into simulation code.
	Generator Tool = iota
	// Simulator runs the generated simulation.
	Simulator
)

func (t Tool) String() string {
	switch t {
	case Generator:
		return "generator"
	case Simulator:
		return "simulator"
	default:
		return "unknown"
	}
}

// BaseName is the executable name without a platform suffix.
func (t Tool) BaseName() string {
	switch t {
	case Generator:
		return "generateSpineML"
	case Simulator:
		return "simulateSpineML"
	default:
		return ""
	}
}

// Dir returns the tool's source and build directory under the GeNN root.
func (t Tool) Dir(gennPath string) string {
	return filepath.Join(gennPath, "spineml", t.String())
}

// Executable returns the executable file name for goos.
func (t Tool) Executable(goos string) string {
	if goos == "windows" {
		return t.BaseName() + ".exe"
	}
	return t.BaseName()
}

// Path returns the expected executable location for goos under the GeNN root.
func (t Tool) Path(gennPath, goos string) string {
	return filepath.Join(t.Dir(gennPath), t.Executable(goos))
}
