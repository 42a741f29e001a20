package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

// recordingToolchain records every phase and fails the configured one.
type recordingToolchain struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

func (r *recordingToolchain) Run(
	_ context.Context,
	phase domain.BuildPhase,
	_ domain.ToolchainParameters,
	stdout, stderr io.Writer,
) error {
	r.mu.Lock()
	r.calls = append(r.calls, phase.String())
	r.mu.Unlock()

	_, _ = fmt.Fprintf(stdout, "-- running %s\n", phase)
	if phase.String() == r.failOn {
		_, _ = fmt.Fprintln(stderr, "CMake Error: something broke")
		return errors.New("exit status 1")
	}
	return nil
}

func (r *recordingToolchain) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func testGraph(t *testing.T) *domain.ResolvedGraph {
	t.Helper()
	rec, err := domain.ParseRequirement("zlib/1.3.1#b8bc2603263cf7eccbd6e17e66b0ed76")
	require.NoError(t, err)
	g, err := domain.Resolve(&domain.Descriptor{
		Name:     "eda",
		Requires: []domain.Requirement{{Record: rec}},
	}, domain.Platform{OS: domain.OSLinux, BuildType: "Release"}, "1.0.0")
	require.NoError(t, err)
	return g
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	return log
}

func newExecutor(t *testing.T, tc *recordingToolchain) *pipeline.Executor {
	t.Helper()
	return pipeline.New(tc, telemetry.NewNoOp(), quietLogger(t))
}

func TestPlan(t *testing.T) {
	render := func(steps []domain.BuildPhase) []string {
		out := make([]string, len(steps))
		for i, s := range steps {
			out[i] = s.String()
		}
		return out
	}

	assert.Equal(t, []string{"configure", "generate", "build", "install"}, render(pipeline.Plan(pipeline.Options{})))
	assert.Equal(t,
		[]string{"configure", "generate", "build [REL_WEB_CLIENT]", "build", "install", "verify"},
		render(pipeline.Plan(pipeline.Options{Preflight: []string{"REL_WEB_CLIENT"}, Verify: true})),
	)
}

func TestExecutor_Run_Sequence(t *testing.T) {
	tc := &recordingToolchain{}
	exec := newExecutor(t, tc)

	require.NoError(t, exec.Run(t.Context(), testGraph(t), domain.ToolchainParameters{}, pipeline.Options{}))

	assert.Equal(t, []string{"configure", "generate", "build", "install"}, tc.Calls())
	assert.Equal(t, domain.StateDone, exec.State())
	assert.Equal(t, []domain.Transition{
		{From: domain.StateIdle, To: domain.StateConfiguring},
		{From: domain.StateConfiguring, To: domain.StateGenerating},
		{From: domain.StateGenerating, To: domain.StateBuilding},
		{From: domain.StateBuilding, To: domain.StateInstalling},
		{From: domain.StateInstalling, To: domain.StateDone},
	}, exec.Transitions())
}

func TestExecutor_Run_PreflightOnceBeforeFullBuild(t *testing.T) {
	tc := &recordingToolchain{}
	exec := newExecutor(t, tc)

	opts := pipeline.Options{Preflight: []string{"REL_WEB_CLIENT"}}
	require.NoError(t, exec.Run(t.Context(), testGraph(t), domain.ToolchainParameters{}, opts))

	calls := tc.Calls()
	assert.Equal(t, []string{"configure", "generate", "build [REL_WEB_CLIENT]", "build", "install"}, calls)

	count := 0
	for _, c := range calls {
		if c == "build [REL_WEB_CLIENT]" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	building := 0
	for _, tr := range exec.Transitions() {
		if tr.To == domain.StateBuilding {
			building++
		}
	}
	assert.Equal(t, 1, building, "preflight and full build share the Building state")
}

func TestExecutor_Run_GenerateFailure(t *testing.T) {
	tc := &recordingToolchain{failOn: "generate"}
	exec := newExecutor(t, tc)

	err := exec.Run(t.Context(), testGraph(t), domain.ToolchainParameters{}, pipeline.Options{Preflight: []string{"REL_WEB_CLIENT"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrToolchainPhaseFailure)

	var phaseErr *domain.PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, domain.PhaseGenerate, phaseErr.Phase)
	assert.Contains(t, phaseErr.Log, "CMake Error: something broke")

	assert.Equal(t, []string{"configure", "generate"}, tc.Calls())
	assert.Equal(t, domain.StateFailed, exec.State())

	transitions := exec.Transitions()
	assert.Equal(t, domain.Transition{From: domain.StateGenerating, To: domain.StateFailed}, transitions[len(transitions)-1])
}

func TestExecutor_Run_PreflightFailureFailsBuild(t *testing.T) {
	tc := &recordingToolchain{failOn: "build [REL_WEB_CLIENT]"}
	exec := newExecutor(t, tc)

	err := exec.Run(t.Context(), testGraph(t), domain.ToolchainParameters{}, pipeline.Options{Preflight: []string{"REL_WEB_CLIENT"}})

	var phaseErr *domain.PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, domain.PhaseBuild, phaseErr.Phase)
	assert.Equal(t, "REL_WEB_CLIENT", phaseErr.Target)
	assert.Equal(t, []string{"configure", "generate", "build [REL_WEB_CLIENT]"}, tc.Calls())
	assert.Equal(t, domain.StateFailed, exec.State())
}

func TestExecutor_Run_Verify(t *testing.T) {
	tc := &recordingToolchain{failOn: "verify"}
	exec := newExecutor(t, tc)

	err := exec.Run(t.Context(), testGraph(t), domain.ToolchainParameters{}, pipeline.Options{Verify: true})

	var phaseErr *domain.PhaseError
	require.True(t, errors.As(err, &phaseErr))
	assert.Equal(t, domain.PhaseVerify, phaseErr.Phase)
	assert.Contains(t, exec.Transitions(), domain.Transition{From: domain.StateInstalling, To: domain.StateVerifying})
}

func TestExecutor_Run_NilGraph(t *testing.T) {
	tc := &recordingToolchain{}
	exec := newExecutor(t, tc)

	err := exec.Run(t.Context(), nil, domain.ToolchainParameters{}, pipeline.Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidGraph)
	assert.Empty(t, tc.Calls())
	assert.Equal(t, domain.StateIdle, exec.State())
	assert.Empty(t, exec.Transitions())
}

func TestExecutor_Run_Cancelled(t *testing.T) {
	tc := &recordingToolchain{}
	exec := newExecutor(t, tc)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := exec.Run(ctx, testGraph(t), domain.ToolchainParameters{}, pipeline.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tc.Calls())
	assert.Equal(t, domain.StateFailed, exec.State())
}

func TestExecutor_Run_Telemetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	toolchain := mocks.NewMockToolchain(ctrl)
	tel := mocks.NewMockTelemetry(ctrl)

	var names []string
	tel.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, name string) (context.Context, ports.Vertex) {
		names = append(names, name)
		v := mocks.NewMockVertex(ctrl)
		v.EXPECT().Stdout().Return(io.Discard)
		v.EXPECT().Stderr().Return(io.Discard)
		v.EXPECT().Complete(nil)
		return ctx, v
	}).Times(4)

	params := domain.ToolchainParameters{BuildDir: "build/Release"}
	gomock.InOrder(
		toolchain.EXPECT().Run(gomock.Any(), domain.BuildPhase{Phase: domain.PhaseConfigure}, params, gomock.Any(), gomock.Any()),
		toolchain.EXPECT().Run(gomock.Any(), domain.BuildPhase{Phase: domain.PhaseGenerate}, params, gomock.Any(), gomock.Any()),
		toolchain.EXPECT().Run(gomock.Any(), domain.BuildPhase{Phase: domain.PhaseBuild}, params, gomock.Any(), gomock.Any()),
		toolchain.EXPECT().Run(gomock.Any(), domain.BuildPhase{Phase: domain.PhaseInstall}, params, gomock.Any(), gomock.Any()),
	)

	exec := pipeline.New(toolchain, tel, quietLogger(t))
	require.NoError(t, exec.Run(t.Context(), testGraph(t), params, pipeline.Options{}))
	assert.Equal(t, []string{"configure", "generate", "build", "install"}, names)
}

func TestTailBuffer(t *testing.T) {
	buf := pipeline.NewTailBuffer(16)
	_, _ = io.WriteString(buf, "line one\nline two\nline three\n")
	assert.Equal(t, "line three", buf.String())

	small := pipeline.NewTailBuffer(1024)
	_, _ = io.WriteString(small, strings.Repeat("x", 10)+"\n")
	assert.Equal(t, "xxxxxxxxxx", small.String())
}
