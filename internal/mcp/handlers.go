package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/spineml2genn/internal/history"
	"github.com/nvandessel/spineml2genn/internal/manifest"
	"github.com/nvandessel/spineml2genn/internal/ratelimit"
	"github.com/nvandessel/spineml2genn/internal/spineml"
)

const defaultHistoryLimit = 10

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spineml_resolve",
		Description: "List the model and component files an experiment references",
	}, s.handleResolve)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spineml_status",
		Description: "Report whether the next run would need to regenerate code, comparing the model directory with the last snapshot",
	}, s.handleStatus)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "spineml_history",
		Description: "List recent pipeline runs recorded for the output directory",
	}, s.handleHistory)
}

func (s *Server) handleResolve(ctx context.Context, req *sdk.CallToolRequest, args ResolveInput) (_ *sdk.CallToolResult, _ ResolveOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spineml_resolve", start, retErr, map[string]any{"experiment": args.Experiment})
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolResolve); err != nil {
		return nil, ResolveOutput{}, err
	}
	if args.Experiment < 0 {
		return nil, ResolveOutput{}, fmt.Errorf("experiment must be non-negative, got %d", args.Experiment)
	}

	refs, err := spineml.Resolve(s.modelDir, args.Experiment)
	if err != nil {
		return nil, ResolveOutput{}, fmt.Errorf("resolving experiment %d: %w", args.Experiment, err)
	}

	return nil, ResolveOutput{
		ExperimentFile: refs.ExperimentFile,
		ModelFile:      refs.ModelFile,
		Components:     refs.Components,
		Count:          len(refs.Components),
	}, nil
}

// handleStatus compares the source files directly with the snapshot, which is
// what the next run's staging step would produce, so nothing is written.
func (s *Server) handleStatus(ctx context.Context, req *sdk.CallToolRequest, args StatusInput) (_ *sdk.CallToolResult, _ StatusOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spineml_status", start, retErr, map[string]any{"experiment": args.Experiment})
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolStatus); err != nil {
		return nil, StatusOutput{}, err
	}
	if args.Experiment < 0 {
		return nil, StatusOutput{}, fmt.Errorf("experiment must be non-negative, got %d", args.Experiment)
	}

	refs, err := spineml.Resolve(s.modelDir, args.Experiment)
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("resolving experiment %d: %w", args.Experiment, err)
	}

	decision, _, err := manifest.Detect(s.modelDir, s.layout.SnapshotDir(), manifest.Inputs{
		ModelFile:      refs.ModelFile,
		ExperimentFile: refs.ExperimentFile,
		Components:     refs.Components,
	})
	if err != nil {
		return nil, StatusOutput{}, err
	}

	return nil, StatusOutput{
		Experiment:  args.Experiment,
		Recompile:   decision.Recompile,
		Reason:      string(decision.Reason),
		Changed:     decision.Changed,
		Message:     decision.Message(),
		SnapshotDir: s.layout.SnapshotDir(),
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("spineml_history", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := ratelimit.CheckLimit(s.limiters, ratelimit.ToolHistory); err != nil {
		return nil, HistoryOutput{}, err
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	ledger, err := history.Open(ctx, s.layout.StateDir())
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("opening run history: %w", err)
	}
	defer ledger.Close()

	runs, err := ledger.List(ctx, limit)
	if err != nil {
		return nil, HistoryOutput{}, err
	}
	if runs == nil {
		runs = []history.Run{}
	}

	return nil, HistoryOutput{Runs: runs, Count: len(runs)}, nil
}
