package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func scenarioFiles() map[string]string {
	return map[string]string{
		"model.xml":       "<model/>",
		"experiment0.xml": "<experiment/>",
		"neuron_a.xml":    "<neuron/>",
		"post_a.xml":      "<post/>",
		"wu_a.xml":        "<wu/>",
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.xml": "hello"})

	m, err := Build(dir, []string{"a.xml", "missing.xml"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	a := m.Entries["a.xml"]
	if a.Absent {
		t.Error("a.xml should be present")
	}
	if a.Size != 5 {
		t.Errorf("a.xml size = %d, want 5", a.Size)
	}
	// sha256("hello")
	if a.Digest != "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Errorf("a.xml digest = %s", a.Digest)
	}
	if !m.Entries["missing.xml"].Absent {
		t.Error("missing.xml should be recorded as absent")
	}
}

func TestBuild_MissingDir(t *testing.T) {
	m, err := Build(filepath.Join(t.TempDir(), "prev"), []string{"a.xml"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if m != nil {
		t.Errorf("Build() on missing dir = %+v, want nil", m)
	}
}

func TestBuild_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"prev": "not a dir"})

	if _, err := Build(filepath.Join(dir, "prev"), nil); err == nil {
		t.Error("expected error when snapshot path is a file")
	}
}

func TestDetect_FirstRun(t *testing.T) {
	staging := t.TempDir()
	writeFiles(t, staging, scenarioFiles())

	d, staged, err := Detect(staging, filepath.Join(staging, "prev"), scenarioInputs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !d.Recompile || d.Reason != ReasonFirstRun {
		t.Errorf("Detect() = %v, want first-run recompile", d)
	}
	if staged == nil || len(staged.Entries) != 5 {
		t.Errorf("staged manifest = %+v, want 5 entries", staged)
	}
}

func TestDetect_Unchanged(t *testing.T) {
	staging := t.TempDir()
	writeFiles(t, staging, scenarioFiles())
	writeFiles(t, filepath.Join(staging, "prev"), scenarioFiles())

	d, _, err := Detect(staging, filepath.Join(staging, "prev"), scenarioInputs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if d.Recompile || d.Reason != ReasonUnchanged {
		t.Errorf("Detect() = %v, want unchanged", d)
	}
}

func TestDetect_SameSizeDifferentContent(t *testing.T) {
	staging := t.TempDir()
	writeFiles(t, staging, scenarioFiles())
	prev := scenarioFiles()
	prev["wu_a.xml"] = "<WU/>"
	writeFiles(t, filepath.Join(staging, "prev"), prev)

	d, _, err := Detect(staging, filepath.Join(staging, "prev"), scenarioInputs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !d.Recompile || d.Reason != ReasonInputsChanged {
		t.Errorf("Detect() = %v, want inputs-changed", d)
	}
	if len(d.Changed) != 1 || d.Changed[0] != "wu_a.xml" {
		t.Errorf("Changed = %v, want [wu_a.xml]", d.Changed)
	}
}

func TestDetect_MissingStaging(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "model")
	if _, _, err := Detect(missing, filepath.Join(missing, "prev"), scenarioInputs); err == nil {
		t.Error("expected error for missing staging directory")
	}
}
