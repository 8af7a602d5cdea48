package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nvandessel/spineml2genn/internal/config"
)

// Provider knows where a platform keeps the GeNN executables, how to build
// them, and how to wrap an invocation in the platform's build environment.
type Provider interface {
	// Locate returns the executable path, or an error wrapping os.ErrNotExist.
	Locate(tool Tool) (string, error)
	// Build compiles the tool in place.
	Build(ctx context.Context, tool Tool) error
	// Command returns the invocation for running the executable at path.
	Command(path string, args []string) Command
}

// NewProvider picks the provider for goos. Build commands are logged to logger,
// or slog.Default() when it is nil.
func NewProvider(goos, gennPath string, cfg config.GeNNConfig, runner Runner, logger *slog.Logger) (Provider, error) {
	if goos == "windows" {
		prelude, err := findBuildScript(cfg.WindowsBuildScripts)
		if err != nil {
			return nil, err
		}
		return &MSBuildProvider{GeNNPath: gennPath, Prelude: prelude, Runner: runner, Logger: logger}, nil
	}
	return &MakeProvider{GeNNPath: gennPath, GOOS: goos, Runner: runner, Logger: logger}, nil
}

// findBuildScript returns the last existing candidate, quoted and with the
// target architecture appended.
func findBuildScript(candidates []string) (string, error) {
	prelude := ""
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			prelude = cmdQuote(c) + " amd64"
		}
	}
	if prelude == "" {
		return "", ErrNoBuildScript
	}
	return prelude, nil
}

func locate(tool Tool, gennPath, goos string) (string, error) {
	path := tool.Path(gennPath, goos)
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("locating %s: %w", tool, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("locating %s: %s is a directory", tool, path)
	}
	return path, nil
}

// MakeProvider builds the tools with make (Linux and macOS).
type MakeProvider struct {
	GeNNPath string
	GOOS     string
	Runner   Runner
	Logger   *slog.Logger
}

func (p *MakeProvider) Locate(tool Tool) (string, error) {
	return locate(tool, p.GeNNPath, p.GOOS)
}

func (p *MakeProvider) Build(ctx context.Context, tool Tool) error {
	cmd := Command{Name: "make", Dir: tool.Dir(p.GeNNPath)}
	orDefault(p.Logger).Debug("building tool", "tool", tool.String(), "dir", cmd.Dir)
	if err := p.Runner.Run(ctx, cmd); err != nil {
		return &ToolError{Tool: tool, Stage: "build", ExitCode: exitCode(err), Err: err}
	}
	return nil
}

func (p *MakeProvider) Command(path string, args []string) Command {
	return Command{Name: path, Args: args}
}

// MSBuildProvider builds the tools with msbuild inside a Visual C++
// environment (Windows). Every invocation runs after the environment prelude.
type MSBuildProvider struct {
	GeNNPath string
	// Prelude is the environment script invocation, e.g. `"C:\...\vcvarsall.bat" amd64`.
	Prelude string
	Runner  Runner
	Logger  *slog.Logger
}

func (p *MSBuildProvider) Locate(tool Tool) (string, error) {
	return locate(tool, p.GeNNPath, "windows")
}

func (p *MSBuildProvider) Build(ctx context.Context, tool Tool) error {
	line := fmt.Sprintf("%s && cd %s && msbuild /p:Configuration=Release", p.Prelude, cmdQuote(tool.Dir(p.GeNNPath)))
	orDefault(p.Logger).Debug("building tool", "tool", tool.String(), "command", line)
	if err := p.Runner.Run(ctx, Command{Name: "cmd", Args: []string{"/c", line}}); err != nil {
		return &ToolError{Tool: tool, Stage: "build", ExitCode: exitCode(err), Err: err}
	}
	return nil
}

func (p *MSBuildProvider) Command(path string, args []string) Command {
	parts := []string{p.Prelude, "&&", cmdQuote(path)}
	for _, a := range args {
		parts = append(parts, cmdQuote(a))
	}
	return Command{Name: "cmd", Args: []string{"/c", strings.Join(parts, " ")}}
}

// cmdQuote wraps s in double quotes for cmd.exe. Backslashes are left alone.
func cmdQuote(s string) string {
	return `"` + s + `"`
}
