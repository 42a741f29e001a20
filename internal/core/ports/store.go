package ports

import "go.trai.ch/kiln/internal/core/domain"

// BuildRecordStore defines the interface for persisting build outcomes.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type BuildRecordStore interface {
	// Get retrieves the last record stored under key.
	// Returns nil, nil if not found.
	Get(key string) (*domain.BuildRecord, error)

	// Put stores the record under its key.
	Put(record domain.BuildRecord) error
}
