package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Phase is one stage of the native build lifecycle.
type Phase string

const (
	// PhaseConfigure prepares the build tree.
	PhaseConfigure Phase = "configure"
	// PhaseGenerate writes toolchain files and generates the native build system.
	PhaseGenerate Phase = "generate"
	// PhaseBuild compiles, optionally restricted to a single target.
	PhaseBuild Phase = "build"
	// PhaseInstall copies build outputs into the install prefix.
	PhaseInstall Phase = "install"
	// PhaseVerify runs the test suite after install.
	PhaseVerify Phase = "verify"
)

// BuildPhase is a phase with an optional sub-target.
type BuildPhase struct {
	Phase  Phase
	Target string
}

// Partial reports whether this is a restricted build of a single target.
func (b BuildPhase) Partial() bool {
	return b.Phase == PhaseBuild && b.Target != ""
}

func (b BuildPhase) String() string {
	if b.Target == "" {
		return string(b.Phase)
	}
	return string(b.Phase) + " [" + b.Target + "]"
}

// State is a state of the phase executor.
type State string

const (
	// StateIdle is the initial state.
	StateIdle State = "Idle"
	// StateConfiguring runs the configure phase.
	StateConfiguring State = "Configuring"
	// StateGenerating runs the generate phase.
	StateGenerating State = "Generating"
	// StateBuilding runs pre-flight and full builds.
	StateBuilding State = "Building"
	// StateInstalling runs the install phase.
	StateInstalling State = "Installing"
	// StateVerifying runs post-install verification.
	StateVerifying State = "Verifying"
	// StateDone is reached after the last phase succeeds.
	StateDone State = "Done"
	// StateFailed is reached on the first failing phase.
	StateFailed State = "Failed"
)

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// StateFor returns the executor state that runs a phase.
func StateFor(p Phase) State {
	switch p {
	case PhaseConfigure:
		return StateConfiguring
	case PhaseGenerate:
		return StateGenerating
	case PhaseBuild:
		return StateBuilding
	case PhaseInstall:
		return StateInstalling
	case PhaseVerify:
		return StateVerifying
	default:
		return StateFailed
	}
}

// Transition records a single state change.
type Transition struct {
	From State
	To   State
}

// PhaseError reports a toolchain failure at a specific phase.
type PhaseError struct {
	Phase  Phase
	Target string
	// Log holds the tail of the phase output.
	Log string
	Err error
}

func (e *PhaseError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Phase))
	b.WriteString(" phase failed")
	if e.Target != "" {
		b.WriteString(" for target ")
		b.WriteString(e.Target)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Message returns the failure without its cause.
func (e *PhaseError) Message() string {
	msg := string(e.Phase) + " phase failed"
	if e.Target != "" {
		msg += " for target " + e.Target
	}
	return msg
}

// Unwrap returns the toolchain error.
func (e *PhaseError) Unwrap() error { return e.Err }

// Is matches ErrToolchainPhaseFailure.
func (e *PhaseError) Is(target error) bool {
	return target == ErrToolchainPhaseFailure
}

// Metadata exposes the phase context to error renderers.
func (e *PhaseError) Metadata() map[string]any {
	md := map[string]any{"phase": string(e.Phase)}
	if e.Target != "" {
		md["target"] = e.Target
	}
	if e.Log != "" {
		md["log"] = e.Log
	}
	return md
}

// NewPhaseError builds a PhaseError, annotating err with the phase.
func NewPhaseError(step BuildPhase, log string, err error) *PhaseError {
	if err == nil {
		err = zerr.New("toolchain reported failure")
	}
	return &PhaseError{Phase: step.Phase, Target: step.Target, Log: log, Err: err}
}
