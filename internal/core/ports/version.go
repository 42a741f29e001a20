package ports

import "context"

// VersionResolver computes the version string of the project being built.
// The result is opaque to the core.
//
//go:generate go run go.uber.org/mock/mockgen -source=version.go -destination=mocks/mock_version.go -package=mocks
type VersionResolver interface {
	Resolve(ctx context.Context) (string, error)
}
