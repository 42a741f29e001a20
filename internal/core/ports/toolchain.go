package ports

import (
	"context"
	"io"

	"go.trai.ch/kiln/internal/core/domain"
)

// Toolchain defines the interface to the external native build system.
//
//go:generate go run go.uber.org/mock/mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type Toolchain interface {
	// Run executes a single phase and blocks until the toolchain returns.
	// Output of the underlying processes is streamed to stdout and stderr.
	Run(ctx context.Context, phase domain.BuildPhase, params domain.ToolchainParameters, stdout, stderr io.Writer) error
}
