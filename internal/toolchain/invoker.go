package toolchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/spineml2genn/internal/logging"
)

// Invoker locates, builds and runs tools through a provider's build environment.
type Invoker struct {
	provider Provider
	runner   Runner
	logger   *slog.Logger
}

// NewInvoker creates an invoker. A nil logger uses slog.Default().
func NewInvoker(p Provider, r Runner, logger *slog.Logger) *Invoker {
	return &Invoker{provider: p, runner: r, logger: orDefault(logger)}
}

// Ensure returns the path of tool, building it first when the executable is missing.
func (inv *Invoker) Ensure(ctx context.Context, tool Tool) (string, error) {
	path, err := inv.provider.Locate(tool)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	inv.logger.Info("compiling tool", "tool", tool.String())
	if err := inv.provider.Build(ctx, tool); err != nil {
		return "", err
	}

	path, err = inv.provider.Locate(tool)
	if err != nil {
		return "", fmt.Errorf("%w: %s after build: %v", ErrToolMissing, tool, err)
	}
	return path, nil
}

// Run executes the tool at path and waits for it. A non-zero exit is returned as *ToolError.
func (inv *Invoker) Run(ctx context.Context, tool Tool, path string, args []string) error {
	cmd := inv.provider.Command(path, args)
	inv.logger.Log(ctx, logging.LevelTrace, "invoking tool", "tool", tool.String(), "name", cmd.Name, "args", cmd.Args)
	if err := inv.runner.Run(ctx, cmd); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s interrupted: %w", tool, ctx.Err())
		}
		return &ToolError{Tool: tool, Stage: "run", ExitCode: exitCode(err), Err: err}
	}
	return nil
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
