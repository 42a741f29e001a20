package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.uber.org/mock/gomock"
)

type testDeps struct {
	loader *mocks.MockDescriptorLoader
	logger *mocks.MockLogger
}

func newTestApp(t *testing.T) (*app.App, testDeps) {
	t.Helper()
	ctrl := gomock.NewController(t)
	deps := testDeps{
		loader: mocks.NewMockDescriptorLoader(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	tel := telemetry.NewNoOp()
	application := app.New(
		deps.loader,
		pipeline.New(mocks.NewMockToolchain(ctrl), tel, deps.logger),
		tel,
		deps.logger,
		mocks.NewMockBuildRecordStore(ctrl),
		mocks.NewMockArtifactProvider(ctrl),
		mocks.NewMockVersionResolver(ctrl),
	)
	return application, deps
}

func providerFor(a *app.App, log *mocks.MockLogger) ComponentProvider {
	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: a, Logger: log, Telemetry: telemetry.NewNoOp()}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	application, deps := newTestApp(t)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, providerFor(application, deps.logger))
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 and logs when the build fails.
func TestRun_ExecutionError(t *testing.T) {
	application, deps := newTestApp(t)
	deps.loader.EXPECT().Load("missing.yaml").Return(nil, domain.ErrDescriptorNotFound)
	deps.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrDescriptorNotFound)
	})

	exitCode := run(context.Background(), []string{"build", "-f", "missing.yaml", "--os", "linux"},
		new(bytes.Buffer), providerFor(application, deps.logger))

	assert.Equal(t, 1, exitCode)
}

// TestRun_Signal verifies that a cancelled context fails the invocation.
func TestRun_Signal(t *testing.T) {
	application, deps := newTestApp(t)

	blockCh := make(chan struct{})
	deps.loader.EXPECT().Load(gomock.Any()).DoAndReturn(func(_ string) (*domain.Descriptor, error) {
		select {
		case <-blockCh:
			return nil, context.Canceled
		case <-time.After(5 * time.Second):
			return nil, errors.New("timeout in mock")
		}
	})
	deps.logger.EXPECT().Error(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan int)

	go func() {
		errCh <- run(ctx, []string{"build", "--os", "linux"}, new(bytes.Buffer), providerFor(application, deps.logger))
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	close(blockCh)

	select {
	case ret := <-errCh:
		assert.Equal(t, 1, ret)
	case <-time.After(2 * time.Second):
		t.Fatal("TestRun_Signal timed out waiting for run() to return")
	}
}
