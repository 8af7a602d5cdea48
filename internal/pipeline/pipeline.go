// Package pipeline runs one SpineML-to-GeNN build: resolve the experiment's
// references, stage them, compare with the previous snapshot, refresh the
// snapshot, then generate and simulate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/nvandessel/spineml2genn/internal/config"
	"github.com/nvandessel/spineml2genn/internal/history"
	"github.com/nvandessel/spineml2genn/internal/logging"
	"github.com/nvandessel/spineml2genn/internal/manifest"
	"github.com/nvandessel/spineml2genn/internal/spineml"
	"github.com/nvandessel/spineml2genn/internal/staging"
	"github.com/nvandessel/spineml2genn/internal/toolchain"
)

// Result describes a finished (or failed) run.
type Result struct {
	State      State                `json:"state"`
	References *spineml.References  `json:"references,omitempty"`
	Staged     *staging.StageResult `json:"staged,omitempty"`
	Decision   *manifest.Decision   `json:"decision,omitempty"`
	Generated  bool                 `json:"generated"`
	Simulated  bool                 `json:"simulated"`
}

// Pipeline runs builds with a fixed configuration.
type Pipeline struct {
	cfg    *config.Config
	runner toolchain.Runner
	logger *slog.Logger
	goos   string
	now    func() time.Time
}

// New creates a pipeline. A nil logger uses slog.Default().
func New(cfg *config.Config, runner toolchain.Runner, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:    cfg,
		runner: runner,
		logger: logger,
		goos:   runtime.GOOS,
		now:    time.Now,
	}
}

// run carries the mutable state of a single Run call.
type run struct {
	opts      Options
	layout    staging.Layout
	result    *Result
	decisions *logging.DecisionLogger
	ledger    *history.Ledger
	previous  *history.Run
}

// Run executes one build. The returned Result is non-nil whenever the
// arguments validated, even if a later step fails, and records how far the
// run got.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	gennPath, err := p.cfg.RequireGeNNPath()
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(opts.ModelDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", staging.ErrSourceMissing, opts.ModelDir)
	}
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}

	layout := staging.Layout{Root: outputDir}
	if err := checkModelOutsideStaging(opts.ModelDir, layout); err != nil {
		return nil, err
	}

	r := &run{
		opts:   opts,
		layout: layout,
		result: &Result{State: StateInit},
	}
	p.advance(r, StateArgsValidated,
		"model_dir", opts.ModelDir,
		"output_dir", outputDir,
		"experiment", *opts.Experiment)
	if opts.WorkDir != "" || !opts.Overrides.IsZero() {
		p.logger.Debug("unused arguments accepted", "work_dir", opts.WorkDir, "overrides", opts.Overrides)
	}

	r.decisions = logging.NewDecisionLogger(r.layout.StateDir(), p.cfg.Logging.Level)
	defer r.decisions.Close()

	if p.cfg.History.Enabled {
		p.openHistory(ctx, r)
		if r.ledger != nil {
			defer r.ledger.Close()
		}
	}

	started := p.now()
	err = p.execute(ctx, r, gennPath)
	p.record(ctx, r, started, err)
	return r.result, err
}

// checkModelOutsideStaging rejects a model directory at or below the staging
// directory, e.g. `-m out/model -o out`.
func checkModelOutsideStaging(modelDir string, layout staging.Layout) error {
	abs, err := filepath.Abs(modelDir)
	if err != nil {
		return fmt.Errorf("resolving model directory: %w", err)
	}
	stagingDir := layout.StagingDir()
	if abs == stagingDir || strings.HasPrefix(abs, stagingDir+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrModelInStaging, modelDir)
	}
	return nil
}

func (p *Pipeline) execute(ctx context.Context, r *run, gennPath string) error {
	refs, err := spineml.Resolve(r.opts.ModelDir, *r.opts.Experiment)
	if err != nil {
		return fmt.Errorf("resolving references: %w", err)
	}
	r.result.References = refs
	p.advance(r, StateReferencesResolved,
		"model", refs.ModelFile,
		"components", len(refs.Components))
	p.logger.Debug("component set", "components", refs.Components)

	stagingDir := r.layout.StagingDir()
	staged, err := staging.Stage(r.opts.ModelDir, stagingDir, refs, p.cfg.Staging.AuxExtensions)
	if err != nil {
		return fmt.Errorf("staging model: %w", err)
	}
	r.result.Staged = staged
	p.advance(r, StateStaged, "dir", stagingDir, "auxiliary", len(staged.Auxiliary))

	in := manifest.Inputs{
		ModelFile:      refs.ModelFile,
		ExperimentFile: refs.ExperimentFile,
		Components:     refs.Components,
	}
	decision, stagedManifest, err := manifest.Detect(stagingDir, r.layout.SnapshotDir(), in)
	if err != nil {
		return fmt.Errorf("comparing with previous run: %w", err)
	}
	r.result.Decision = &decision
	p.advance(r, StateCompared, "reason", string(decision.Reason), "changed", decision.Changed)
	p.logger.Info(decision.Message())
	p.traceDigests(stagedManifest)
	r.decisions.Log(map[string]any{
		"event":      "change_detected",
		"experiment": refs.ExperimentFile,
		"reason":     string(decision.Reason),
		"recompile":  decision.Recompile,
		"changed":    decision.Changed,
	})

	if err := staging.UpdateSnapshot(stagingDir, r.layout.SnapshotDir(), refs.Files()); err != nil {
		return fmt.Errorf("updating snapshot: %w", err)
	}
	p.advance(r, StateSnapshotUpdated, "dir", r.layout.SnapshotDir())

	provider, err := toolchain.NewProvider(p.goos, gennPath, p.cfg.GeNN, p.runner, p.logger)
	if err != nil {
		return err
	}
	invoker := toolchain.NewInvoker(provider, p.runner, p.logger)
	generator, err := invoker.Ensure(ctx, toolchain.Generator)
	if err != nil {
		return fmt.Errorf("preparing generator: %w", err)
	}
	simulator, err := invoker.Ensure(ctx, toolchain.Simulator)
	if err != nil {
		return fmt.Errorf("preparing simulator: %w", err)
	}
	p.advance(r, StateToolsEnsured, "generator", generator, "simulator", simulator)

	args := []string{filepath.Join(stagingDir, refs.ExperimentFile)}

	generate, why := p.shouldGenerate(r, decision)
	r.decisions.Log(map[string]any{
		"event":    "generation",
		"policy":   p.cfg.Generation.Policy,
		"generate": generate,
		"why":      why,
	})
	if generate {
		if err := invoker.Run(ctx, toolchain.Generator, generator, args); err != nil {
			return fmt.Errorf("running generator: %w", err)
		}
		r.result.Generated = true
		p.advance(r, StateGenerated)
	} else {
		p.logger.Info("skipping code generation", "why", why)
	}

	if err := invoker.Run(ctx, toolchain.Simulator, simulator, args); err != nil {
		return fmt.Errorf("running simulator: %w", err)
	}
	r.result.Simulated = true
	p.advance(r, StateSimulated)

	p.advance(r, StateDone)
	return nil
}

// shouldGenerate applies the generation policy. Under on-change the generator
// still runs when the previous recorded run did not finish cleanly, since its
// output cannot be trusted even though the inputs match the snapshot.
func (p *Pipeline) shouldGenerate(r *run, d manifest.Decision) (bool, string) {
	if p.cfg.Generation.Policy != config.PolicyOnChange {
		return true, "policy always"
	}
	if d.Recompile {
		return true, string(d.Reason)
	}
	if r.previous != nil && !r.previous.Succeeded() {
		return true, "previous run failed"
	}
	return false, string(d.Reason)
}

func (p *Pipeline) advance(r *run, s State, attrs ...any) {
	r.result.State = s
	p.logger.Debug("pipeline state", append([]any{"state", string(s)}, attrs...)...)
}

func (p *Pipeline) traceDigests(m *manifest.Manifest) {
	if m == nil || !p.logger.Enabled(context.Background(), logging.LevelTrace) {
		return
	}
	for name, e := range m.Entries {
		p.logger.Log(context.Background(), logging.LevelTrace, "staged digest", "file", name, "digest", e.Digest, "size", e.Size)
	}
}

// openHistory opens the run ledger and loads the last run. Failures only
// disable history for this run.
func (p *Pipeline) openHistory(ctx context.Context, r *run) {
	ledger, err := history.Open(ctx, r.layout.StateDir())
	if err != nil {
		p.logger.Warn("run history unavailable", "error", err)
		return
	}
	r.ledger = ledger

	last, err := ledger.Last(ctx)
	switch {
	case err == nil:
		r.previous = &last
	case !errors.Is(err, history.ErrNoRuns):
		p.logger.Warn("reading run history", "error", err)
	}
}

func (p *Pipeline) record(ctx context.Context, r *run, started time.Time, runErr error) {
	if r.ledger == nil {
		return
	}
	entry := history.Run{
		StartedAt:  started,
		FinishedAt: p.now(),
		Experiment: *r.opts.Experiment,
		ModelDir:   r.opts.ModelDir,
		Generated:  r.result.Generated,
		State:      string(r.result.State),
	}
	if d := r.result.Decision; d != nil {
		entry.Reason = string(d.Reason)
		entry.Recompile = d.Recompile
		entry.Changed = d.Changed
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	// Record even when the run context was cancelled.
	if _, err := r.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		p.logger.Warn("recording run", "error", err)
	}
}
