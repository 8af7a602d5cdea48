package toolchain

import (
	"errors"
	"fmt"
)

var (
	// ErrToolFailed is matched by every *ToolError.
	ErrToolFailed = errors.New("tool failed")

	// ErrToolMissing is returned when an executable is still absent after a build.
	ErrToolMissing = errors.New("tool executable not found")

	// ErrNoBuildScript is returned on Windows when no Visual C++ environment script exists.
	ErrNoBuildScript = errors.New("windows build config script not found")
)

// ToolError reports a non-zero exit from a build step or tool invocation.
type ToolError struct {
	Tool     Tool
	Stage    string // "build" or "run"
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s %s exited with status %d", e.Tool, e.Stage, e.ExitCode)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Tool, e.Stage, e.Err)
}

// Is reports ErrToolFailed as a match.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolFailed
}

func (e *ToolError) Unwrap() error {
	return e.Err
}
