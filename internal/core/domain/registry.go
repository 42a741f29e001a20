package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// Registry holds the ordered set of pinned dependencies for one platform.
// Registration order is kept for auditability only.
type Registry struct {
	platform Platform
	records  []DependencyRecord
	index    map[string]int
}

// NewRegistry creates an empty registry resolving conditions against platform.
func NewRegistry(platform Platform) *Registry {
	return &Registry{
		platform: platform,
		index:    make(map[string]int),
	}
}

// Register appends a record, rejecting identifiers that are already present.
func (r *Registry) Register(rec DependencyRecord) error {
	if i, exists := r.index[rec.Identifier]; exists {
		err := zerr.With(zerr.Wrap(ErrDuplicateDependency, "dependency registered twice"), "identifier", rec.Identifier)
		err = zerr.With(err, "existing_hash", r.records[i].ContentHash)
		return zerr.With(err, "hash", rec.ContentHash)
	}

	r.index[rec.Identifier] = len(r.records)
	r.records = append(r.records, rec)
	return nil
}

// RegisterConditional appends a record only when pred holds for the registry's platform.
// It reports whether the record was added.
func (r *Registry) RegisterConditional(pred Predicate, rec DependencyRecord) (bool, error) {
	if pred != nil && !pred.Matches(r.platform) {
		return false, nil
	}
	if err := r.Register(rec); err != nil {
		return false, err
	}
	return true, nil
}

// Records returns a copy of the registered records in registration order.
func (r *Registry) Records() []DependencyRecord {
	return slices.Clone(r.records)
}

// Len returns the number of registered records.
func (r *Registry) Len() int {
	return len(r.records)
}
