// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/kiln/internal/core/domain"

// DescriptorLoader defines the interface for loading build descriptors.
//
//go:generate go run go.uber.org/mock/mockgen -source=descriptor_loader.go -destination=mocks/mock_descriptor_loader.go -package=mocks
type DescriptorLoader interface {
	// Load reads and validates the descriptor at path.
	Load(path string) (*domain.Descriptor, error)
}
