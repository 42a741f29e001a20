// Package pipeline runs the build phases in their fixed order.
package pipeline

import (
	"context"
	"io"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// logTailBytes bounds the phase output kept for error reports.
const logTailBytes = 4096

// Options selects the optional steps of a run.
type Options struct {
	// Preflight targets are built in order before the full build.
	Preflight []string
	// Verify runs the verification phase after install.
	Verify bool
}

// Plan returns the steps of a run in execution order.
func Plan(opts Options) []domain.BuildPhase {
	steps := []domain.BuildPhase{
		{Phase: domain.PhaseConfigure},
		{Phase: domain.PhaseGenerate},
	}
	for _, target := range opts.Preflight {
		steps = append(steps, domain.BuildPhase{Phase: domain.PhaseBuild, Target: target})
	}
	steps = append(steps,
		domain.BuildPhase{Phase: domain.PhaseBuild},
		domain.BuildPhase{Phase: domain.PhaseInstall},
	)
	if opts.Verify {
		steps = append(steps, domain.BuildPhase{Phase: domain.PhaseVerify})
	}
	return steps
}

// Executor drives a toolchain through the plan, one step at a time.
type Executor struct {
	toolchain ports.Toolchain
	telemetry ports.Telemetry
	logger    ports.Logger

	mu          sync.RWMutex
	state       domain.State
	transitions []domain.Transition
}

// New creates an Executor in the Idle state.
func New(toolchain ports.Toolchain, telemetry ports.Telemetry, logger ports.Logger) *Executor {
	return &Executor{
		toolchain: toolchain,
		telemetry: telemetry,
		logger:    logger,
		state:     domain.StateIdle,
	}
}

// State returns the current lifecycle state.
func (e *Executor) State() domain.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Transitions returns the state changes of the last run.
func (e *Executor) Transitions() []domain.Transition {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.transitions)
}

func (e *Executor) transition(to domain.State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == to {
		return
	}
	e.transitions = append(e.transitions, domain.Transition{From: e.state, To: to})
	e.state = to
}

func (e *Executor) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = domain.StateIdle
	e.transitions = nil
}

// Run executes the plan against params. The first failing step moves the
// executor to Failed and nothing after it runs. The returned error is a
// *domain.PhaseError naming the failed step.
func (e *Executor) Run(
	ctx context.Context,
	graph *domain.ResolvedGraph,
	params domain.ToolchainParameters,
	opts Options,
) error {
	if graph == nil {
		return zerr.Wrap(domain.ErrInvalidGraph, "cannot execute without a resolved graph")
	}
	e.reset()

	for _, step := range Plan(opts) {
		e.transition(domain.StateFor(step.Phase))
		if err := e.runStep(ctx, step, params); err != nil {
			e.transition(domain.StateFailed)
			return err
		}
	}

	e.transition(domain.StateDone)
	e.logger.Info(graph.Name() + " " + graph.Version() + " built for " + graph.Platform().String())
	return nil
}

func (e *Executor) runStep(ctx context.Context, step domain.BuildPhase, params domain.ToolchainParameters) error {
	if err := ctx.Err(); err != nil {
		return domain.NewPhaseError(step, "", err)
	}

	e.logger.Info("phase " + step.String())
	vctx, vertex := e.telemetry.Record(ctx, step.String())

	tail := newTailBuffer(logTailBytes)
	stdout := io.MultiWriter(vertex.Stdout(), tail)
	stderr := io.MultiWriter(vertex.Stderr(), tail)

	err := e.toolchain.Run(vctx, step, params, stdout, stderr)
	vertex.Complete(err)
	if err != nil {
		vertex.Log(domain.LogLevelError, step.String()+" failed")
		return domain.NewPhaseError(step, tail.String(), err)
	}
	return nil
}
